// Package build holds values stamped in at link time, eg
//
//	go build -ldflags "-X github.com/drummonds/pageshot/internal/build.Version=v1.2.0"
package build

// Version of the binary, "dev" for local builds
var Version = "dev"
