package model

var zero = 0.0

var RoleTypes = Descriptor{
	Name:  "Role_type",
	Path:  "role_types",
	Table: "role_types",
	Key:   "id",
	Fields: []Field{
		{Name: "description", Kind: KindString, Required: true},
	},
}

var RelationshipTypes = Descriptor{
	Name:  "Relationship_type",
	Path:  "relationship_types",
	Table: "relationship_types",
	Key:   "id",
	Fields: []Field{
		{Name: "description", Kind: KindString, Required: true},
	},
}

var Individuals = Descriptor{
	Name:  "Individual",
	Path:  "individuals",
	Table: "individuals",
	Key:   "id",
	Fields: []Field{
		{Name: "type_id", Kind: KindInt, Required: true, References: "role_types"},
		{Name: "birthdate", Kind: KindDate, Required: true},
		{Name: "is_male", Kind: KindBool, Required: true},
		{Name: "first_name", Kind: KindString, Required: true},
		{Name: "middle_name", Kind: KindString},
		{Name: "last_name", Kind: KindString, Required: true},
		{Name: "address", Kind: KindString, Required: true},
		{Name: "contact", Kind: KindString, Required: true},
	},
}

var Donations = Descriptor{
	Name:  "Donation",
	Path:  "donations",
	Table: "donations",
	Key:   "id",
	Fields: []Field{
		{Name: "individual_id", Kind: KindInt, Required: true, References: "individuals"},
		{Name: "date", Kind: KindDate, Required: true},
		{Name: "ampoule_count", Kind: KindInt, Required: true, Min: &zero},
		{Name: "motility_rating", Kind: KindDecimal, Required: true},
	},
}

var Relationships = Descriptor{
	Name:  "Relationship",
	Path:  "relationships",
	Table: "relationships",
	Key:   "id",
	Fields: []Field{
		{Name: "type_id", Kind: KindInt, Required: true, References: "relationship_types"},
		{Name: "individual_1_id", Kind: KindInt, Required: true, References: "individuals"},
		{Name: "individual_2_id", Kind: KindInt, Required: true, References: "individuals"},
		{Name: "date_start", Kind: KindDate, Required: true},
		{Name: "date_end", Kind: KindDate},
	},
}

// Resources lists every CRUD resource in dependency order: referenced
// tables come before the tables that point at them.
func Resources() []Descriptor {
	return []Descriptor{RoleTypes, RelationshipTypes, Individuals, Donations, Relationships}
}
