package link

import (
	"go.bug.st/serial"
)

// bugstPort adapts go.bug.st/serial. Its Read already returns (0, nil) on
// timeout.
type bugstPort struct {
	serial.Port
}

func openBugst(cfg Config) (Port, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		_ = port.Close()
		return nil, err
	}
	return &bugstPort{Port: port}, nil
}

func (p *bugstPort) ResetInput() error {
	return p.Port.ResetInputBuffer()
}
