package risk

// Signal is one explainable rule evaluation. Signals are produced fresh on
// every adjudication run and persisted only as the serialized list attached
// to a Decision.
type Signal struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Threshold   string `json:"threshold"`
	Weight      int    `json:"weight"`
	Fired       bool   `json:"fired"`
	Explanation string `json:"explanation"`
}

// Fired filters a signal list down to the signals that fired, preserving
// order.
func Fired(signals []Signal) []Signal {
	fired := make([]Signal, 0, len(signals))
	for _, s := range signals {
		if s.Fired {
			fired = append(fired, s)
		}
	}
	return fired
}

// Names returns the signal names in order.
func Names(signals []Signal) []string {
	names := make([]string, 0, len(signals))
	for _, s := range signals {
		names = append(names, s.Name)
	}
	return names
}
