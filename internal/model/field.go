package model

// Field names a logical column of a row-set, independent of the header text
// used by any particular spreadsheet.
type Field string

const (
	FieldID           Field = "id"
	FieldName         Field = "name"
	FieldDocument     Field = "document"
	FieldDelegation   Field = "delegation"
	FieldStreet       Field = "address"
	FieldMunicipality Field = "municipality"
	FieldProvince     Field = "province"
	FieldFullAddress  Field = "full_address"
	FieldLatitude     Field = "latitude"
	FieldLongitude    Field = "longitude"
)

// RequiredFields is the schema every row-set is widened to before comparison.
var RequiredFields = []Field{
	FieldName,
	FieldDocument,
	FieldDelegation,
	FieldStreet,
	FieldMunicipality,
	FieldProvince,
	FieldID,
	FieldFullAddress,
	FieldLatitude,
	FieldLongitude,
}

// OutputFields is the column order of a reconciled row-set.
var OutputFields = []Field{
	FieldID,
	FieldName,
	FieldDocument,
	FieldDelegation,
	FieldFullAddress,
	FieldLatitude,
	FieldLongitude,
}

// AddressFields are the parts a full address is built from.
var AddressFields = []Field{FieldStreet, FieldMunicipality, FieldProvince}

// AllFields is every field in spreadsheet order (parts before the derived address).
var AllFields = []Field{
	FieldID,
	FieldName,
	FieldDocument,
	FieldDelegation,
	FieldStreet,
	FieldMunicipality,
	FieldProvince,
	FieldFullAddress,
	FieldLatitude,
	FieldLongitude,
}
