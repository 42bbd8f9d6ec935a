package common

// Version is set at build time with -ldflags "-X github.com/ruteri/simpleweb/common.Version=...".
var Version = "dev"

// PackageName is used as the metrics namespace and default service tag.
const PackageName = "simpleweb"
