// Package jsonfile implements a backend.Backend that keeps a settings
// namespace in a single JSON file.
//
// The file holds the nested tree ({"mail": {"driver": "smtp"}}), never the
// dotted keys. Read flattens the document, Write unflattens the target and
// rewrites the whole file; there is no diffing since a file rewrite is cheap.
//
// Key Features:
//   - Missing or empty files read as an empty namespace
//   - Integers survive a round trip (the decoder keeps json.Number)
//   - Atomic replacement through a temporary file and rename in the same
//     directory
//   - Any afero.Fs can be used, afero.NewMemMapFs() in tests
//
// A document that is not valid JSON or whose top level value is not an object
// is reported as backend.ErrMalformedRecord. Every file system failure is a
// backend.ErrStorageAccess.
package jsonfile
