package listener

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// socketTimeout bounds each status exchange so a stuck peer cannot pin a
// serving goroutine.
const socketTimeout = 2 * time.Second

// StatusServer answers each connection on a unix socket with one JSON
// status snapshot, which is how `listen status` in another process sees the
// live session.
type StatusServer struct {
	listener net.Listener
	log      zerolog.Logger
	path     string
}

// ServeStatus starts answering status queries on the unix socket at path.
// A stale socket left by a dead process is removed first. The caller is
// responsible for the directory being private; see paths.EnsureRuntimeDir.
func (l *Listener) ServeStatus(path string) (*StatusServer, error) {
	os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on status socket: %w", err)
	}
	os.Chmod(path, 0600)

	srv := &StatusServer{listener: ln, log: l.log, path: path}
	go srv.acceptLoop(l)
	return srv, nil
}

func (s *StatusServer) acceptLoop(l *Listener) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Warn().Err(err).Msg("status socket accept error")
			continue
		}
		go s.handle(conn, l)
	}
}

func (s *StatusServer) handle(conn net.Conn, l *Listener) {
	defer conn.Close()
	conn.SetWriteDeadline(time.Now().Add(socketTimeout))
	if err := json.NewEncoder(conn).Encode(l.Snapshot()); err != nil {
		s.log.Warn().Err(err).Msg("status socket write failed")
	}
}

// Close stops the server and removes the socket file.
func (s *StatusServer) Close() error {
	err := s.listener.Close()
	os.Remove(s.path)
	return err
}

// QueryStatus asks the listener process behind the socket for its current
// status snapshot.
func QueryStatus(path string) (Status, error) {
	conn, err := net.DialTimeout("unix", path, socketTimeout)
	if err != nil {
		return Status{}, fmt.Errorf("connect to listener: %w", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(socketTimeout))

	var status Status
	if err := json.NewDecoder(conn).Decode(&status); err != nil {
		return Status{}, fmt.Errorf("decode status: %w", err)
	}
	return status, nil
}
