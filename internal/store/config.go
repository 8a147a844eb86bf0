package store

import (
	"strconv"

	"github.com/duskrelay/dnsforward/internal/config"
)

// SaveConfig persists cfg's recognized settings, overwriting any
// prior values.
func (s *Store) SaveConfig(cfg *config.Config) error {
	pairs := map[string]string{
		KeyUpstreamAddr:      cfg.UpstreamAddr,
		KeyUDPListen:         cfg.UDPListen,
		KeyDoHListen:         cfg.DoHListen,
		KeyUpstreamTimeoutMS: strconv.Itoa(cfg.UpstreamTimeoutMS),
		KeyLoggingLevel:      cfg.Logging.Level,
	}
	for k, v := range pairs {
		if err := s.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

// ApplyTo overlays any persisted settings onto cfg, leaving fields
// with no stored value untouched.
func (s *Store) ApplyTo(cfg *config.Config) error {
	if v, ok, err := s.Get(KeyUpstreamAddr); err != nil {
		return err
	} else if ok {
		cfg.UpstreamAddr = v
	}
	if v, ok, err := s.Get(KeyUDPListen); err != nil {
		return err
	} else if ok {
		cfg.UDPListen = v
	}
	if v, ok, err := s.Get(KeyDoHListen); err != nil {
		return err
	} else if ok {
		cfg.DoHListen = v
	}
	if v, ok, err := s.Get(KeyUpstreamTimeoutMS); err != nil {
		return err
	} else if ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.UpstreamTimeoutMS = n
		}
	}
	if v, ok, err := s.Get(KeyLoggingLevel); err != nil {
		return err
	} else if ok {
		cfg.Logging.Level = v
	}
	return nil
}
