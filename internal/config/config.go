// Package config loads the TOML configuration file and the
// supporting environment variables described in spec.md §6. The TOML
// decode setup follows the teacher's cmd/ranger/config.go and
// cmd/utils/nodecmd/dumpconfigcmd.go tomlSettings, except that TOML
// keys are matched to field names ignoring case and underscores (so
// `tick_time_seconds` fills TickTimeSeconds and the `node` table fills
// Node). Unknown fields are a hard error.
package config

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/naoina/toml"
	"github.com/pkg/errors"
)

var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return strings.ToLower(strings.ReplaceAll(key, "_", "")) },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		link := ""
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// NodeConfig is the `node` TOML table (spec.md §6).
type NodeConfig struct {
	Host               string
	RPCPort            int
	GRPCPort           int
	AddressPrefix      string
	ChainID            string
	FeeDenom           string
	GasAdjustmentNum   uint64
	GasAdjustmentDenom uint64
	GasPriceNum        uint64
	GasPriceDenom      uint64
	FeeAdjustmentNum   uint64
	FeeAdjustmentDenom uint64
}

// BroadcastConfig is the `broadcast` TOML table (spec.md §6).
type BroadcastConfig struct {
	HardGasLimit           uint64
	BetweenTxMarginSeconds uint64
}

// Config is the top-level TOML document shape (spec.md §6): the
// common timing/broadcast/node keys the core uses, plus free-form
// application tables the feeder and dispatcher decode on their own.
type Config struct {
	TickTimeSeconds         uint64
	PollTimeSeconds         uint64
	BetweenTxMarginSeconds  uint64
	HardGasLimit            uint64
	AdminContractAddress    string
	Broadcast               BroadcastConfig
	Node                    NodeConfig
	Oracles                 map[string]interface{}
	Providers               map[string]interface{}
	ComparisonProviders     map[string]interface{}
	TimeAlarms              map[string]interface{}
	MarketPriceOracle       map[string]interface{}
}

// Load reads and decodes the TOML file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg)
	if _, ok := err.(*toml.LineError); ok {
		err = errors.Wrap(err, path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "config: decoding")
	}
	return &cfg, nil
}

// truthy is the set of values spec.md §6 treats as "true" for
// DEBUG_LOGGING and OUTPUT_JSON.
func truthy(v string) bool {
	switch v {
	case "1", "y", "Y", "yes", "true":
		return true
	default:
		return false
	}
}

// EnvBool reads a boolean environment variable using spec.md §6's
// truthy set, defaulting to false when unset.
func EnvBool(name string) bool {
	return truthy(os.Getenv(name))
}

// RequireEnv reads a required string environment variable, returning an
// error when it is unset or empty. The error carries no chainerr kind;
// callers that need one wrap it.
func RequireEnv(name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", fmt.Errorf("config: required environment variable %s is not set", name)
	}
	return v, nil
}

// ReadMnemonicFromStdin is the fallback path for SIGNING_KEY_MNEMONIC:
// read exactly one line from standard input (spec.md §6).
func ReadMnemonicFromStdin() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// DexNodeGRPCVar derives the environment variable name for a DEX
// network's gRPC endpoint (spec.md §6, §8): upper-case the network
// name, replace '-' with '_', and append "__NODE_GRPC".
func DexNodeGRPCVar(network string) string {
	upper := strings.ToUpper(network)
	upper = strings.ReplaceAll(upper, "-", "_")
	return upper + "__NODE_GRPC"
}

// RequiredRetriesCount parses NON_DELAYED_TASK_RETRIES_COUNT as a u8,
// per spec.md §6.
func RequiredRetriesCount() (uint8, error) {
	raw, err := RequireEnv("NON_DELAYED_TASK_RETRIES_COUNT")
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("config: NON_DELAYED_TASK_RETRIES_COUNT: %w", err)
	}
	return uint8(v), nil
}

var errMissingLogsDirectory = errors.New("config: LOGS_DIRECTORY is not set")

// LogsDirectory reads the required LOGS_DIRECTORY environment
// variable (spec.md §6).
func LogsDirectory() (string, error) {
	v, ok := os.LookupEnv("LOGS_DIRECTORY")
	if !ok || v == "" {
		return "", errMissingLogsDirectory
	}
	return v, nil
}
