package task

// BuiltinID is the TaskId for the three built-in tasks the supervisor
// always boots: the balance reporter, the broadcaster, and the
// protocol watcher (spec.md §3).
type BuiltinID string

const (
	BalanceReporter  BuiltinID = "balance-reporter"
	Broadcaster      BuiltinID = "broadcaster"
	ProtocolWatcher  BuiltinID = "protocol-watcher"
)

func (id BuiltinID) String() string                { return string(id) }
func (id BuiltinID) Protocol() (string, bool)       { return "", false }

// AppID is the TaskId for application-defined tasks: an optional
// protocol name plus a free-form discriminator (e.g. the DEX provider
// name for a price fetcher, or a fixed string for a protocol-agnostic
// task).
type AppID struct {
	ProtocolName  string
	Discriminator string
}

func (id AppID) String() string {
	if id.ProtocolName == "" {
		return id.Discriminator
	}
	return id.ProtocolName + "/" + id.Discriminator
}

func (id AppID) Protocol() (string, bool) {
	if id.ProtocolName == "" {
		return "", false
	}
	return id.ProtocolName, true
}
