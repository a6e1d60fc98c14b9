package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	cmdUtil "github.com/ValentinKolb/dotset/cmd/util"
	"github.com/ValentinKolb/dotset/lib/backend"
	"github.com/ValentinKolb/dotset/lib/manager"
	"github.com/ValentinKolb/dotset/rpc/common"
	"github.com/ValentinKolb/dotset/rpc/serializer"
	"github.com/ValentinKolb/dotset/rpc/server"
	"github.com/ValentinKolb/dotset/rpc/transport/http"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the settings server",
		Long:    `Start the settings server with the specified configuration. The configuration can be set via command line flags, a config file or environment variables. The format of the environment variables is DOTSET_<flag> (e.g. DOTSET_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	// backend flags, shared with the settings commands
	cmdUtil.SetupBackendFlags(ServeCmd)

	// add flags
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "1=json", cmdUtil.WrapString("Comma-separated list of shards to serve. Format: ID=DRIVER where DRIVER is one of: json, database, memory, redis"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the API will listen (e.g. localhost:8080)"))

	key = "shutdown-timeout"
	ServeCmd.PersistentFlags().Int(key, 10, cmdUtil.WrapString("Seconds to wait for running requests on shutdown"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	shards, err := ParseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}
	serveCmdConfig.Shards = shards

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	return nil
}

// ParseShards parses a list of ID=DRIVER pairs
func ParseShards(value string) ([]common.ServerShard, error) {
	var shards []common.ServerShard
	seen := map[uint64]bool{}
	for _, shardConfig := range strings.Split(value, ",") {
		if strings.TrimSpace(shardConfig) == "" {
			continue
		}
		parts := strings.Split(shardConfig, "=")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid shard format: %s (expected ID=DRIVER)", shardConfig)
		}

		// Parse shard ID
		shardID, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid shard ID %s: %v", parts[0], err)
		}
		if seen[shardID] {
			return nil, fmt.Errorf("shard %d configured twice", shardID)
		}
		seen[shardID] = true

		// Parse shard driver
		driver, err := backend.ParseImplementation(parts[1])
		if err != nil {
			return nil, err
		}
		if driver == backend.ImplRemote {
			return nil, fmt.Errorf("shard %d: the remote driver cannot be served", shardID)
		}

		shards = append(shards, common.ServerShard{
			ShardID: shardID,
			Driver:  driver,
		})
	}
	if len(shards) == 0 {
		return nil, fmt.Errorf("no shards configured")
	}
	return shards, nil
}

// run starts the settings server and stops it on SIGINT or SIGTERM
func run(cmd *cobra.Command, _ []string) error {
	s, err := serializer.ByName(viper.GetString("serializer"))
	if err != nil {
		return err
	}

	config, err := cmdUtil.GetManagerConfig()
	if err != nil {
		return err
	}
	mgr := manager.New(config)
	defer mgr.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serv := server.NewRPCServer(
		*serveCmdConfig,
		http.NewHttpServerTransport(),
		s,
		func(shard common.ServerShard) (backend.Backend, error) {
			return mgr.ShardBackend(ctx, shard.Driver, shard.ShardID)
		},
	)

	errCh := make(chan error, 1)
	go func() { errCh <- serv.Serve() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(viper.GetInt("shutdown-timeout"))*time.Second)
	defer cancel()
	if err := serv.Close(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
