package detmap

type Configuration struct {
	Verbosity        int      `json:"verbosity" env:"DETMAP_VERBOSITY"`
	NoDB             bool     `json:"no_db" env:"DETMAP_NO_DB"`
	Host             string   `json:"host" env:"DETMAP_HOST"`
	User             string   `json:"user" env:"DETMAP_USER"`
	Passwd           string   `json:"pass" env:"DETMAP_PASS"`
	DBName           string   `json:"dbname" env:"DETMAP_DBNAME"`
	RunNumber        int      `json:"run_number" env:"DETMAP_RUN_NUMBER"`
	Detectors        []string `json:"detectors" env:"DETMAP_DETECTORS" envSeparator:","`
	MapFile          string   `json:"map_file" env:"DETMAP_MAP_FILE"`
	FillFlags        []string `json:"fill_flags" env:"DETMAP_FILL_FLAGS" envSeparator:","`
	FileOut          string   `json:"file_out" env:"DETMAP_FILE_OUT"`
	CompressionLevel int      `json:"compression_level" env:"DETMAP_COMPRESSION_LEVEL"`
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
