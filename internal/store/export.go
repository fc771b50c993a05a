package store

import "logpanel/internal/export"

// Export renders the whole buffer, narrowed by opts.
func (s *Store) Export(opts export.Options) (string, error) {
	return export.Logs(s.Logs(), opts)
}
