package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/ValentinKolb/dotset/lib/dotpath"
	"github.com/spf13/cobra"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [path]",
		Short: "Prints the value at a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := cmd.Flags().GetString("default")
			if err != nil {
				return err
			}
			value, found, err := settingsStore.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				if !cmd.Flags().Changed("default") {
					return fmt.Errorf("%s is not set", args[0])
				}
				value = def
			}
			return printValue(cmd.OutOrStdout(), value)
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [path] [value]",
		Short: "Sets the value at a path",
		Long:  "Sets the value at a path. The value is parsed as JSON, so numbers, booleans, objects and lists keep their type. Values that are no valid JSON, or all values with --raw, are stored as strings.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := cmd.Flags().GetBool("raw")
			if err != nil {
				return err
			}
			if err := settingsStore.Set(cmd.Context(), args[0], ParseValue(args[1], raw)); err != nil {
				return err
			}
			return settingsStore.Save(cmd.Context())
		},
	}
	forgetCmd = &cobra.Command{
		Use:   "forget [path...]",
		Short: "Removes paths and the containers they leave empty",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := settingsStore.Forget(cmd.Context(), path); err != nil {
					return err
				}
			}
			return settingsStore.Save(cmd.Context())
		},
	}
	allCmd = &cobra.Command{
		Use:   "all",
		Short: "Prints all settings as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flat, err := cmd.Flags().GetBool("flat")
			if err != nil {
				return err
			}
			var value any
			if flat {
				value, err = settingsStore.Flat(cmd.Context())
			} else {
				value, err = settingsStore.All(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), value)
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Prints the dotted key of every stored value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flat, err := settingsStore.Flat(cmd.Context())
			if err != nil {
				return err
			}
			for _, key := range flat.Keys() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), key); err != nil {
					return err
				}
			}
			return nil
		},
	}
	importCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Merges the settings of a JSON file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			replace, err := cmd.Flags().GetBool("replace")
			if err != nil {
				return err
			}
			values, err := readImport(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			if replace {
				current, err := settingsStore.All(cmd.Context())
				if err != nil {
					return err
				}
				for _, key := range sortedKeys(current) {
					if err := settingsStore.Forget(cmd.Context(), key); err != nil {
						return err
					}
				}
			}
			// flat keys merge into existing subtrees instead of replacing them
			if err := settingsStore.SetMany(cmd.Context(), dotpath.Flatten(values)); err != nil {
				return err
			}
			return settingsStore.Save(cmd.Context())
		},
	}
)

func init() {
	getCmd.Flags().String("default", "", "Value printed when the path is not set")
	setCmd.Flags().Bool("raw", false, "Store the value as a string without parsing it")
	allCmd.Flags().Bool("flat", false, "Print the flat form (dotted keys) instead of the tree")
	importCmd.Flags().Bool("replace", false, "Remove all settings before importing")
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseValue parses a command line value as JSON. Invalid JSON, and every
// value when raw is set, stays a string.
func ParseValue(value string, raw bool) any {
	if raw {
		return value
	}
	var parsed any
	dec := json.NewDecoder(bytes.NewReader([]byte(value)))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil || dec.More() {
		return value
	}
	return numbers(parsed)
}

// numbers converts json.Number values to int64 or float64
func numbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = numbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = numbers(e)
		}
	}
	return v
}

// readImport reads the top level object of a JSON file
func readImport(stdin io.Reader, file string) (map[string]any, error) {
	var data []byte
	var err error
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, err
	}
	parsed, ok := ParseValue(string(data), false).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s does not contain a JSON object", file)
	}
	return parsed, nil
}

// printValue prints strings as they are and everything else as JSON
func printValue(w io.Writer, value any) error {
	if s, ok := value.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	return printJSON(w, value)
}

// printJSON prints value as indented JSON with sorted keys
func printJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// sortedKeys returns the keys of m in order
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
