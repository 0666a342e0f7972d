package model

// ItemType is the single-character classifier at the start of a Gopher
// directory listing line.
type ItemType rune

// Item types from the Gopher type alphabet that this crawler acts on.
// Any other tag is treated as unrecognized and recorded as an error.
const (
	// ItemTypeTextFile marks a plain text file ('0').
	ItemTypeTextFile ItemType = '0'

	// ItemTypeDirectory marks a sub-directory listing ('1').
	ItemTypeDirectory ItemType = '1'

	// ItemTypeBinaryFile marks a binary file ('9').
	ItemTypeBinaryFile ItemType = '9'

	// ItemTypeInfo marks a non-navigable informational line ('i').
	ItemTypeInfo ItemType = 'i'
)

// String returns the type tag as a one-character string.
func (t ItemType) String() string {
	return string(rune(t))
}

// IsFile reports whether the tag denotes a fetchable file.
func (t ItemType) IsFile() bool {
	return t == ItemTypeTextFile || t == ItemTypeBinaryFile
}

// IsBinary reports whether the tag denotes a binary file.
func (t ItemType) IsBinary() bool {
	return t == ItemTypeBinaryFile
}

// DirectoryEntry is the result of parsing one Gopher listing line.
// Entries keep their own advertised host and port because a listing may
// point at a different server than the one that served it.
type DirectoryEntry struct {
	// Type is the single-character type tag.
	Type ItemType `json:"type"`

	// Display is the human-readable text shown for this entry.
	Display string `json:"display"`

	// Selector is the opaque resource identifier on the entry's server.
	// The empty string denotes the server root.
	Selector string `json:"selector"`

	// Host is the hostname the entry points at.
	Host string `json:"host"`

	// Port is the TCP port the entry points at.
	Port int `json:"port"`
}

// Endpoint returns the server the entry points at.
func (d DirectoryEntry) Endpoint() Endpoint {
	return Endpoint{Host: d.Host, Port: d.Port}
}

// PathKey returns the canonical (endpoint, selector) key for this entry.
func (d DirectoryEntry) PathKey() string {
	return d.Endpoint().PathKey(d.Selector)
}
