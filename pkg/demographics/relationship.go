package demographics

import (
	"slices"
	"strings"
)

var relationshipTypes = []string{
	"spouse",
	"child",
	"parent",
	"sibling",
	"grandparent",
	"grandchild",
	"guardian",
	"ward",
}

// RelationshipTypes returns the relationships accepted for family linking.
func RelationshipTypes() []string {
	return slices.Clone(relationshipTypes)
}

func IsValidRelationship(rel string) bool {
	return slices.Contains(relationshipTypes, strings.ToLower(rel))
}
