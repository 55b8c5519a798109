//go:build !prod

package build

var Name = "testbridge"
var Version = "v0.0.0-development"
var Mode = ModeDevelopment
