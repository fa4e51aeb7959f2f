package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Refresh RefreshConfig `toml:"refresh"`
	Log     LogConfig     `toml:"log"`

	// 相对路径的基准目录（可执行文件所在目录）
	baseDir string
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir     string   `toml:"data_dir"`
	WorkbookDir string   `toml:"workbook_dir"` // 为空时使用 data_dir/workbooks
	DBPath      string   `toml:"db_path"`      // 为空时使用 data_dir/oneri.db
	Backfill    []string `toml:"backfill"`     // 有效工作率用可用率补齐的数据源
}

// RefreshConfig 刷新与缓存配置
type RefreshConfig struct {
	Interval      Duration `toml:"interval"`
	CacheSliding  Duration `toml:"cache_sliding"`
	CacheAbsolute Duration `toml:"cache_absolute"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text / json
	File   string `toml:"file"`
}

// Duration 支持 "15m" 这类写法的时长
type Duration struct {
	time.Duration
}

// UnmarshalText 解析 time.ParseDuration 格式
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText 输出 time.Duration 的字符串形式
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20261,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir:  "data",
			Backfill: []string{"cnc", "kaynak"},
		},
		Refresh: RefreshConfig{
			Interval:      Duration{15 * time.Minute},
			CacheSliding:  Duration{30 * time.Minute},
			CacheAbsolute: Duration{2 * time.Hour},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		baseDir: ".",
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return LoadFile(filepath.Join(exeDir, "config.toml"))
}

// LoadFile 从指定路径加载配置；文件不存在时使用默认配置。
// 相对路径以配置文件所在目录为基准，环境变量覆盖文件中的值
func LoadFile(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()
	config.baseDir = filepath.Dir(configPath)

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, fmt.Errorf("failed to read %s: %w", configPath, err)
	}

	applyEnv(config)
	return config, info, nil
}

// 环境变量覆盖（用于部署 / 本地运行）
func applyEnv(config *AppConfig) {
	if v := os.Getenv("ONERI_WORKBOOK_DIR"); v != "" {
		config.Data.WorkbookDir = v
	}
	if v := os.Getenv("ONERI_DB_PATH"); v != "" {
		config.Data.DBPath = v
	}
	if v := os.Getenv("ONERI_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
}

// SaveConfig 保存配置到 config.toml
func SaveConfig(config *AppConfig) error {
	configPath := filepath.Join(config.BaseDir(), "config.toml")

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// BaseDir 相对路径的基准目录
func (c *AppConfig) BaseDir() string {
	if c.baseDir == "" {
		return "."
	}
	return c.baseDir
}

// SetBaseDir 修改相对路径的基准目录
func (c *AppConfig) SetBaseDir(dir string) {
	c.baseDir = dir
}

func (c *AppConfig) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir(), p)
}

// DataPath 数据目录
func (c *AppConfig) DataPath() string {
	return c.resolve(c.Data.DataDir)
}

// WorkbookPath 工作簿目录
func (c *AppConfig) WorkbookPath() string {
	if c.Data.WorkbookDir != "" {
		return c.resolve(c.Data.WorkbookDir)
	}
	return filepath.Join(c.DataPath(), "workbooks")
}

// DBPath SQLite 数据库文件
func (c *AppConfig) DBPath() string {
	if c.Data.DBPath != "" {
		return c.resolve(c.Data.DBPath)
	}
	return filepath.Join(c.DataPath(), "oneri.db")
}

// LogPath 日志文件，为空表示只输出到标准输出
func (c *AppConfig) LogPath() string {
	if c.Log.File == "" {
		return ""
	}
	return c.resolve(c.Log.File)
}

// BackfillSources 补齐开关
func (c *AppConfig) BackfillSources() map[string]bool {
	out := make(map[string]bool, len(c.Data.Backfill))
	for _, s := range c.Data.Backfill {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out[s] = true
		}
	}
	return out
}

// EnsureDataDir 确保数据目录、工作簿目录以及数据库所在目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.DataPath()

	dirs := []string{dataDir, config.WorkbookPath(), filepath.Dir(config.DBPath())}
	if p := config.LogPath(); p != "" {
		dirs = append(dirs, filepath.Dir(p))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return dataDir, nil
}
