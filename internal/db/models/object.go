package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

/*
Table "public.objects"
   Column   |           Type           | Collation | Nullable | Default
------------+--------------------------+-----------+----------+---------
 id         | uuid                     |           | not null |
 label      | text                     |           | not null |
 name       | text[]                   |           | not null |
 properties | jsonb                    |           |          |
 created_at | timestamp with time zone |           | not null |
 updated_at | timestamp with time zone |           | not null |
Indexes:
    "objects_pkey" PRIMARY KEY, btree (id)
    "objects_label_name_key" UNIQUE CONSTRAINT, btree (label, name)
Check constraints:
    "objects_name_check" CHECK (cardinality(name) >= 1)
Referenced by:
    TABLE "associations" CONSTRAINT "associations_from_id_fkey" FOREIGN KEY (from_id) REFERENCES objects(id)
    TABLE "associations" CONSTRAINT "associations_to_id_fkey" FOREIGN KEY (to_id) REFERENCES objects(id)
*/

// Object is a labeled, hierarchically named node of the catalog graph.
type Object struct {
	ID         uuid.UUID       `json:"id"`
	Label      ObjectLabel     `json:"label"`
	Name       []string        `json:"name"`
	Properties json.RawMessage `json:"properties,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// FullName joins the name segments with ".".
func (o *Object) FullName() string {
	return strings.Join(o.Name, ".")
}

// Leaf returns the last name segment.
func (o *Object) Leaf() string {
	if len(o.Name) == 0 {
		return ""
	}
	return o.Name[len(o.Name)-1]
}

// UnmarshalProperties decodes the object properties into v. Empty properties leave v untouched.
func (o *Object) UnmarshalProperties(v any) error {
	if len(o.Properties) == 0 || string(o.Properties) == "null" {
		return nil
	}
	return json.Unmarshal(o.Properties, v)
}

/*
Table "public.associations"
   Column   |           Type           | Collation | Nullable | Default
------------+--------------------------+-----------+----------+---------
 id         | uuid                     |           | not null |
 from_id    | uuid                     |           | not null |
 label      | text                     |           | not null |
 to_id      | uuid                     |           | not null |
 to_label   | text                     |           | not null |
 properties | jsonb                    |           |          |
 created_at | timestamp with time zone |           | not null |
 updated_at | timestamp with time zone |           | not null |
Indexes:
    "associations_pkey" PRIMARY KEY, btree (id)
    "associations_from_id_label_to_id_key" UNIQUE CONSTRAINT, btree (from_id, label, to_id)
    "associations_from_id_label_to_label_idx" btree (from_id, label, to_label)
    "associations_to_id_label_idx" btree (to_id, label)
*/

// Association is a directed, labeled edge between two objects.
type Association struct {
	ID         uuid.UUID        `json:"id"`
	FromID     uuid.UUID        `json:"from_id"`
	Label      AssociationLabel `json:"label"`
	ToID       uuid.UUID        `json:"to_id"`
	ToLabel    ObjectLabel      `json:"to_label"`
	Properties json.RawMessage  `json:"properties,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

func (a *Association) UnmarshalProperties(v any) error {
	if len(a.Properties) == 0 || string(a.Properties) == "null" {
		return nil
	}
	return json.Unmarshal(a.Properties, v)
}
