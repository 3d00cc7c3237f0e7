// Package remote copies output files to a distribution server and runs
// post-copy commands there, over SSH/SFTP.
package remote

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// Host describes one remote server.
type Host struct {
	Addr     string
	Port     int
	User     string
	Password string
	// KeyFile, when set, wins over Password.
	KeyFile string
}

// Client is an established SSH connection with an SFTP channel.
type Client struct {
	conn *ssh.Client
	sftp *sftp.Client
}

// Dial connects and opens the file-transfer channel.
func Dial(host Host) (*Client, error) {
	var auth []ssh.AuthMethod
	if host.KeyFile != "" {
		key, err := os.ReadFile(host.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read key %s: %w", host.KeyFile, err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("failed to parse key %s: %w", host.KeyFile, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	} else {
		auth = append(auth, ssh.Password(host.Password))
	}
	port := host.Port
	if port == 0 {
		port = 22
	}
	conn, err := ssh.Dial("tcp", net.JoinHostPort(host.Addr, fmt.Sprintf("%d", port)), &ssh.ClientConfig{
		User:            host.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", host.Addr, err)
	}
	ftp, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not open sftp channel to %s: %w", host.Addr, err)
	}
	return &Client{conn: conn, sftp: ftp}, nil
}

func (c *Client) Close() error {
	c.sftp.Close()
	return c.conn.Close()
}

// Exec runs a command and returns its combined output lines. A failed
// command is reported as an output line, not an error: listings and
// diagnostics flow into the run report either way.
func (c *Client) Exec(cmd string) []string {
	session, err := c.conn.NewSession()
	if err != nil {
		return []string{fmt.Sprintf("%s failed error: %s", cmd, err)}
	}
	defer session.Close()
	output, err := session.CombinedOutput(cmd)
	lines := splitLines(output)
	if err != nil {
		lines = append(lines, fmt.Sprintf("%s failed error: %s", cmd, err))
	}
	return lines
}

// Put copies a local file to the remote path, optionally forcing group
// read/write mode on the result.
func (c *Client) Put(localPath, remotePath string, setMode bool) error {
	local, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer local.Close()
	remote, err := c.sftp.Create(remotePath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(remote, local); err != nil {
		remote.Close()
		return err
	}
	if err := remote.Close(); err != nil {
		return err
	}
	if setMode {
		return c.sftp.Chmod(remotePath, fs.FileMode(0664))
	}
	return nil
}

// PutAndExec copies a file and then runs each command against the
// remote path, collecting all output lines.
func (c *Client) PutAndExec(localPath, remotePath string, commands []string, setMode bool) ([]string, error) {
	if err := c.Put(localPath, remotePath, setMode); err != nil {
		return nil, err
	}
	var lines []string
	for _, cmd := range commands {
		lines = append(lines, c.Exec(fmt.Sprintf("%s %s", cmd, remotePath))...)
	}
	return lines, nil
}

// Get copies a remote file to a local path.
func (c *Client) Get(remotePath, localPath string) error {
	remote, err := c.sftp.Open(remotePath)
	if err != nil {
		return err
	}
	defer remote.Close()
	local, err := os.Create(localPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(local, remote); err != nil {
		local.Close()
		return err
	}
	return local.Close()
}

// Remove deletes remote files.
func (c *Client) Remove(files ...string) error {
	for _, file := range files {
		if err := c.sftp.Remove(file); err != nil {
			return err
		}
	}
	return nil
}

// RemotePath joins a remote folder and file name with forward slashes
// regardless of the local platform.
func RemotePath(folder, name string) string {
	return path.Join(folder, name)
}

func splitLines(output []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}
