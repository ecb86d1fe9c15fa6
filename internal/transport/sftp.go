package transport

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/pkg/sftp"
)

// Compile-time interface checks.
var (
	_ Source = (*SFTP)(nil)
	_ Lister = (*sliceLister)(nil)
)

// SFTP resolves and lists paths on a remote host over an SFTP session.
type SFTP struct {
	client  *sftp.Client
	closers []io.Closer
}

// NewSFTP wraps an established SFTP client. Extra closers (typically the
// underlying SSH connection) are closed after the client on Close.
func NewSFTP(client *sftp.Client, closers ...io.Closer) *SFTP {
	return &SFTP{client: client, closers: closers}
}

// DialSFTP connects to host over SSH and starts an SFTP session.
func DialSFTP(host, user string, opts SSHOpts) (*SFTP, error) {
	sshClient, err := DialSSH(host, user, opts)
	if err != nil {
		return nil, err
	}
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sftp session on %s: %w", host, err)
	}
	return NewSFTP(client, sshClient), nil
}

func (s *SFTP) Resolve(ctx context.Context, p string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	info, err := s.client.Lstat(p)
	if err != nil {
		return Entry{}, newPathError("lstat", p, err)
	}
	return entryFromInfo(p, info), nil
}

// List reads the whole remote directory in one request sequence; SFTP has
// no cheaper incremental primitive through this client.
//
//nolint:ireturn // implements Source interface
func (s *SFTP) List(ctx context.Context, p string) (Lister, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := s.client.ReadDir(p)
	if err != nil {
		return nil, newPathError("readdir", p, err)
	}
	children := make([]string, len(infos))
	for i, info := range infos {
		children[i] = path.Join(p, info.Name())
	}
	return &sliceLister{paths: children}, nil
}

func (s *SFTP) Close() error {
	err := s.client.Close()
	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// sliceLister yields paths from an already-fetched listing.
type sliceLister struct {
	paths []string
}

func (l *sliceLister) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(l.paths) == 0 {
		return "", io.EOF
	}
	p := l.paths[0]
	l.paths = l.paths[1:]
	return p, nil
}

func (l *sliceLister) Close() error {
	l.paths = nil
	return nil
}
