package holdfast

import (
	"os"

	"github.com/blacklabeldata/m3"
)

// DefaultDataFileName is the constant filename for the value store's
// data file, analogous to nessDB's DB_NAME. Config.DataFileName may
// override it.
const DefaultDataFileName = "ndbs.db"

// dataFileMagic is the fixed 4-byte little-endian magic number at the
// start of every data file (spec §3 "Data file layout").
const dataFileMagic uint32 = 2011

// RecoveryOrder selects how the recovery driver pairs the two `.log`
// files it finds in the base directory into "new" and "old".
type RecoveryOrder uint8

const (
	// RecoveryOrderAsObserved preserves the original, directory-order-
	// dependent pairing: the first `.log` entry encountered becomes
	// "new", the second becomes "old". This is the default, matching
	// the behavior of the source this spec was distilled from — see
	// DESIGN.md Open Question 1.
	RecoveryOrderAsObserved RecoveryOrder = iota

	// RecoveryOrderBySequence sorts `.log` entries by their numeric
	// suffix before pairing: the highest sequence number is "new", the
	// next highest is "old". A conscious, explicit fix for the
	// directory-order fragility spec §9 flags.
	RecoveryOrderBySequence
)

// FlushStrategy controls how (and whether) writes to the data and log
// files are synced to stable storage. It is the pluggable durability
// policy spec §9 asks for, grounded on and reusing
// github.com/blacklabeldata/m3's WriteStrategy function type.
type FlushStrategy = m3.WriteStrategy

// NoSync issues writes without an accompanying fsync, matching the
// original source's observed (unsynced) behavior.
var NoSync FlushStrategy = m3.NoSyncOnWrite

// SyncOnWrite fsyncs the file after every write. Safer, slower.
var SyncOnWrite FlushStrategy = m3.SyncOnWrite

// Config configures a Store at Open time.
type Config struct {
	// DataFileName overrides DefaultDataFileName.
	DataFileName string

	// LogEnabled toggles whether mutations are recorded in the
	// operation log at all (spec §3 "log_enabled").
	LogEnabled bool

	// DataFileMode is the file mode used when creating the data file.
	DataFileMode os.FileMode

	// LogFileMode is the file mode used when creating log files.
	LogFileMode os.FileMode

	// DataFileStrategy controls fsync behavior for the data file.
	DataFileStrategy FlushStrategy

	// LogFileStrategy controls fsync behavior for the log file.
	LogFileStrategy FlushStrategy

	// RecoveryOrder selects the new/old pairing strategy during replay.
	RecoveryOrder RecoveryOrder

	// Logger receives non-fatal diagnostics. Defaults to NewStdLogger().
	Logger Logger
}

// DefaultConfig returns sensible defaults: logging enabled, no fsync
// (matching the original source), as-observed recovery ordering.
func DefaultConfig() Config {
	return Config{
		DataFileName:     DefaultDataFileName,
		LogEnabled:       true,
		DataFileMode:     0644,
		LogFileMode:      0644,
		DataFileStrategy: NoSync,
		LogFileStrategy:  NoSync,
		RecoveryOrder:    RecoveryOrderAsObserved,
		Logger:           NewStdLogger(),
	}
}

func (c *Config) applyDefaults() {
	if c.DataFileName == "" {
		c.DataFileName = DefaultDataFileName
	}
	if c.DataFileMode == 0 {
		c.DataFileMode = 0644
	}
	if c.LogFileMode == 0 {
		c.LogFileMode = 0644
	}
	if c.DataFileStrategy == nil {
		c.DataFileStrategy = NoSync
	}
	if c.LogFileStrategy == nil {
		c.LogFileStrategy = NoSync
	}
	if c.Logger == nil {
		c.Logger = NewStdLogger()
	}
}
