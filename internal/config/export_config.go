package config

type ExportConfig struct {
	Format     string `json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,exportformat"`
	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`
}

func NewDefaultExportConfig() ExportConfig {
	return ExportConfig{
		Format:     DefaultExportFormat,
		OutputPath: DefaultExportOutputPath,
	}
}
