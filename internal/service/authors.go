package service

import (
	"fmt"
)

// CacheAuthor records the id/name mapping for an author.
func (s *Service) CacheAuthor(id int64, name string) error {
	if err := s.authors.Put(id, name); err != nil {
		return fmt.Errorf("failed to cache author: %w", err)
	}
	return nil
}

// ResolveAuthor returns the display name for an author id, if known.
func (s *Service) ResolveAuthor(id int64) (string, bool, error) {
	name, ok, err := s.authors.NameByID(id)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve author: %w", err)
	}
	return name, ok, nil
}

// AuthorID returns the id for an author name, if known.
func (s *Service) AuthorID(name string) (int64, bool, error) {
	id, ok, err := s.authors.IDByName(name)
	if err != nil {
		return 0, false, fmt.Errorf("failed to resolve author id: %w", err)
	}
	return id, ok, nil
}
