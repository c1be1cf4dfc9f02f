package catalog

import (
	"fmt"
	"strings"

	"github.com/wfunc/flashfive/models"
)

// Validate checks the structural rules every catalog must satisfy: a demo
// category with id 0, at least one game category, unique ids, and for each
// category exactly five non-empty correct and five non-empty incorrect labels
// with no label appearing twice.
func Validate(c models.Catalog) error {
	if c.DemoImage.ID != models.DemoCategoryID {
		return fmt.Errorf("%w: demo category must have id %d, got %d", ErrInvalidCatalog, models.DemoCategoryID, c.DemoImage.ID)
	}
	if len(c.GameImages) == 0 {
		return fmt.Errorf("%w: no game categories", ErrInvalidCatalog)
	}
	if err := validateCategory(c.DemoImage); err != nil {
		return err
	}

	seen := map[int]bool{models.DemoCategoryID: true}
	for _, cat := range c.GameImages {
		if seen[cat.ID] {
			return fmt.Errorf("%w: duplicate category id %d", ErrInvalidCatalog, cat.ID)
		}
		seen[cat.ID] = true
		if err := validateCategory(cat); err != nil {
			return err
		}
	}
	return nil
}

func validateCategory(cat models.Category) error {
	if len(cat.CorrectObjects) != models.ObjectsPerList {
		return fmt.Errorf("%w: category %d has %d correct objects, want %d",
			ErrInvalidCatalog, cat.ID, len(cat.CorrectObjects), models.ObjectsPerList)
	}
	if len(cat.IncorrectObjects) != models.ObjectsPerList {
		return fmt.Errorf("%w: category %d has %d incorrect objects, want %d",
			ErrInvalidCatalog, cat.ID, len(cat.IncorrectObjects), models.ObjectsPerList)
	}

	labels := make(map[string]bool, 2*models.ObjectsPerList)
	for _, label := range append(append([]string(nil), cat.CorrectObjects...), cat.IncorrectObjects...) {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("%w: category %d has an empty label", ErrInvalidCatalog, cat.ID)
		}
		if labels[label] {
			return fmt.Errorf("%w: category %d lists %q more than once", ErrInvalidCatalog, cat.ID, label)
		}
		labels[label] = true
	}

	if cat.UploadedImage != "" {
		if _, _, err := DecodeDataURL(cat.UploadedImage); err != nil {
			return fmt.Errorf("%w: category %d uploaded image: %v", ErrInvalidCatalog, cat.ID, err)
		}
	}
	return nil
}
