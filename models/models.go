// models/models.go
package models

// DemoCategoryID is reserved for the demo category.
const DemoCategoryID = 0

// ObjectsPerList is the number of labels in each of a category's two lists.
const ObjectsPerList = 5

// Category 一组图片及其正确/干扰物品
type Category struct {
	ID               int      `json:"id"`
	ImagePath        string   `json:"image_path"`
	Description      string   `json:"description"`
	CorrectObjects   []string `json:"correct_objects"`
	IncorrectObjects []string `json:"incorrect_objects"`
	UploadedImage    string   `json:"uploaded_image,omitempty"`
}

// Clone returns a deep copy so callers can hold it independently of later edits.
func (c Category) Clone() Category {
	out := c
	out.CorrectObjects = append([]string(nil), c.CorrectObjects...)
	out.IncorrectObjects = append([]string(nil), c.IncorrectObjects...)
	return out
}

// ImageSource returns the uploaded image when present, else the bundled asset path.
func (c Category) ImageSource() string {
	if c.UploadedImage != "" {
		return c.UploadedImage
	}
	return c.ImagePath
}

// IsCorrect reports whether label is one of the category's correct objects.
func (c Category) IsCorrect(label string) bool {
	for _, obj := range c.CorrectObjects {
		if obj == label {
			return true
		}
	}
	return false
}

// Catalog 持久化的完整题库
type Catalog struct {
	DemoImage  Category   `json:"demo_image"`
	GameImages []Category `json:"game_images"`
}

// Clone returns a deep copy of the catalog.
func (c Catalog) Clone() Catalog {
	out := Catalog{DemoImage: c.DemoImage.Clone()}
	if c.GameImages != nil {
		out.GameImages = make([]Category, len(c.GameImages))
		for i, cat := range c.GameImages {
			out.GameImages[i] = cat.Clone()
		}
	}
	return out
}

// Find returns a pointer into the catalog for the category with the given id.
// Id 0 always resolves to the demo category.
func (c *Catalog) Find(id int) (*Category, bool) {
	if id == DemoCategoryID {
		return &c.DemoImage, true
	}
	for i := range c.GameImages {
		if c.GameImages[i].ID == id {
			return &c.GameImages[i], true
		}
	}
	return nil, false
}

// All lists the demo category followed by the game categories.
func (c Catalog) All() []Category {
	all := make([]Category, 0, len(c.GameImages)+1)
	all = append(all, c.DemoImage)
	return append(all, c.GameImages...)
}

// ObjectKind selects one of a category's two label lists.
type ObjectKind string

const (
	KindCorrect   ObjectKind = "correct"
	KindIncorrect ObjectKind = "incorrect"
)

// Valid reports whether k names a known list.
func (k ObjectKind) Valid() bool {
	return k == KindCorrect || k == KindIncorrect
}

// Labels returns the list of c selected by k.
func (k ObjectKind) Labels(c *Category) []string {
	if k == KindIncorrect {
		return c.IncorrectObjects
	}
	return c.CorrectObjects
}
