package services

import (
	"errors"
	"fmt"

	domain "github.com/platefeed/api/internal/domain"
	"github.com/platefeed/api/internal/repositories"
)

// mapRepositoryError translates repository failure classes into the business
// taxonomy. Not-found and conflict become their sentinels with a subject for
// the message; outages and anything unclassified pass through untouched so the
// transport layer can report them as retryable.
func mapRepositoryError(err error, subject string) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %s", domain.ErrNotFound, subject)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %s", domain.ErrConflict, subject)
		}
	}
	return err
}
