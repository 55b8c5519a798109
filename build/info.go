package build

type BuildMode string

const (
	ModeDevelopment BuildMode = "development"
	ModeProduction  BuildMode = "production"
)

func IsDevelopment() bool {
	return Mode == ModeDevelopment
}
