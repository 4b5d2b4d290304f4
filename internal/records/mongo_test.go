package records

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestMongoFilter(t *testing.T) {
	owner := "u1"
	folder := "reports"
	root := RootFolder

	tests := []struct {
		name   string
		filter Filter
		want   bson.M
	}{
		{"empty", Filter{}, bson.M{}},
		{"owner", Filter{OwnerID: &owner}, bson.M{"owner_id": "u1"}},
		{"folder", Filter{FolderID: &folder}, bson.M{"folder_id": "reports"}},
		{"root", Filter{FolderID: &root}, bson.M{"folder_id": nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mongoFilter(tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("mongoFilter() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if gv, ok := got[k]; !ok || gv != v {
					t.Errorf("mongoFilter()[%q] = %v, want %v", k, gv, v)
				}
			}
		})
	}
}
