package core

// EnvEntry is one variable injected into the job process.
type EnvEntry struct {
	Key    string
	Value  string
	Secret bool
}

// JobEnv is the ordered list of variables a job runs with. Order is insertion
// order so rendering is reproducible.
type JobEnv []EnvEntry

// Environ returns the entries in "key=value" form suitable for exec.Cmd.Env.
func (e JobEnv) Environ() []string {
	out := make([]string, 0, len(e))
	for _, entry := range e {
		out = append(out, entry.Key+"="+entry.Value)
	}
	return out
}
