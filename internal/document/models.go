package document

import "time"

// Category buckets a document for filtering in the vault UI.
type Category string

const (
	CategoryEducation  Category = "education"
	CategoryHealthcare Category = "healthcare"
	CategoryRailway    Category = "railway"
	CategoryIdentity   Category = "identity"
	CategoryFinancial  Category = "financial"
	CategoryLegal      Category = "legal"
	CategoryOther      Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryEducation, CategoryHealthcare, CategoryRailway, CategoryIdentity,
		CategoryFinancial, CategoryLegal, CategoryOther:
		return true
	}
	return false
}

// Type identifies the kind of document stored.
type Type string

const (
	TypeMarksheet      Type = "marksheet"
	TypeCertificate    Type = "certificate"
	TypePANCard        Type = "pan_card"
	TypeAadhaar        Type = "aadhaar"
	TypePassport       Type = "passport"
	TypeDrivingLicense Type = "driving_license"
	TypeOther          Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeMarksheet, TypeCertificate, TypePANCard, TypeAadhaar,
		TypePassport, TypeDrivingLicense, TypeOther:
		return true
	}
	return false
}

// MaxFileSize caps uploads at 5 MB, matching the client-side limit.
const MaxFileSize = 5 * 1024 * 1024

var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// AllowedMimeType reports whether uploads of the given content type are
// accepted. The set mirrors what the vault UI lets users pick.
func AllowedMimeType(mime string) bool {
	return allowedMimeTypes[mime]
}

// Document is the persistent metadata for an uploaded file. The file bytes
// live in object storage under StorageKey; sharing state is derived from the
// grant store and never written here.
type Document struct {
	ID          string    `json:"_id" bson:"_id,omitempty"`
	OwnerID     string    `json:"ownerId" bson:"ownerId"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Category    Category  `json:"category" bson:"category"`
	Type        Type      `json:"type" bson:"type"`
	MimeType    string    `json:"mimeType" bson:"mimeType"`
	FileSize    int64     `json:"fileSize" bson:"fileSize"`
	StorageKey  string    `json:"-" bson:"storageKey"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}
