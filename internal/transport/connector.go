package transport

// Open returns the Source serving loc: the local filesystem, or an SFTP
// session for remote locations. The caller must Close it.
//
//nolint:ireturn // local or remote source
func Open(loc Location, opts SSHOpts) (Source, error) {
	if loc.IsRemote() {
		s, err := DialSFTP(loc.Host, loc.User, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return NewLocal(), nil
}
