package enums

// AddressLabel identifies the kind of saved address.
type AddressLabel string

const (
	AddressLabelHome  AddressLabel = "home"
	AddressLabelWork  AddressLabel = "work"
	AddressLabelOther AddressLabel = "other"
)

// Valid reports whether the label is one of the supported values.
func (l AddressLabel) Valid() bool {
	switch l {
	case AddressLabelHome, AddressLabelWork, AddressLabelOther:
		return true
	}
	return false
}

// RequiresCustomLabel is true when the caller must supply a custom label text.
func (l AddressLabel) RequiresCustomLabel() bool {
	return l == AddressLabelOther
}
