package link

import (
	"errors"
	"io"

	"github.com/goburrow/serial"
)

// maxDrainReads bounds ResetInput on drivers without a flush call.
const maxDrainReads = 64

// goburrowPort adapts github.com/goburrow/serial, whose Read reports a
// timeout as serial.ErrTimeout.
type goburrowPort struct {
	port io.ReadWriteCloser
}

func openGoburrow(cfg Config) (Port, error) {
	port, err := serial.Open(&serial.Config{
		Address:  cfg.Port,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return &goburrowPort{port: port}, nil
}

func (p *goburrowPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if errors.Is(err, serial.ErrTimeout) {
		return n, nil
	}
	return n, err
}

func (p *goburrowPort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

func (p *goburrowPort) Close() error {
	return p.port.Close()
}

// ResetInput reads until the line is quiet. Each empty read costs one
// read timeout.
func (p *goburrowPort) ResetInput() error {
	buf := make([]byte, 256)
	for i := 0; i < maxDrainReads; i++ {
		n, err := p.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}
