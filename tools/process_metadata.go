package tools

import "time"

// ProcessMetadata captures runtime details of an analyzer process.
type ProcessMetadata struct {
	PID     int
	Command string
	Args    []string
	Root    string
	Started time.Time
}

// ProcessMetadataProvider is implemented by analyzers backed by a process.
type ProcessMetadataProvider interface {
	ProcessMetadata() ProcessMetadata
}

func (c *processClient) ProcessMetadata() ProcessMetadata {
	md := ProcessMetadata{
		Command: c.cfg.Command,
		Args:    append([]string(nil), c.cfg.Args...),
		Root:    c.cmd.Dir,
		Started: c.started,
	}
	if c.cmd.Process != nil {
		md.PID = c.cmd.Process.Pid
	}
	return md
}
