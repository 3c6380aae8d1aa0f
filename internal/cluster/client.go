package cluster

import (
	"bufio"
	"context"
	"net"

	"github.com/goccy/go-json"
)

// SendTask abre una conexión por tarea: una línea JSON de ida y una de vuelta.
func SendTask(ctx context.Context, addr string, task *Task) (*Response, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	// cortar la conexión si cancelan el contexto a mitad de la lectura
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	enc := json.NewEncoder(conn)
	if err := enc.Encode(task); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bufio.NewReader(conn))
	var resp Response
	if err := dec.Decode(&resp); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return &resp, nil
}
