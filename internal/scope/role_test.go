package scope

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "user", want: RoleUser},
		{in: "admin", want: RoleAdmin},
		{in: "superadmin", want: RoleSuperadmin},
		{in: " Admin ", want: RoleAdmin},
		{in: "SUPERADMIN", want: RoleSuperadmin},
		{in: "public", wantErr: true},
		{in: "root", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("%q: expected ErrInvalidInput, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestRoleOrdering(t *testing.T) {
	if !RoleSuperadmin.AtLeast(RoleAdmin) || !RoleAdmin.AtLeast(RoleUser) || !RoleUser.AtLeast(RolePublic) {
		t.Fatal("role ordering broken")
	}
	if RoleUser.AtLeast(RoleAdmin) {
		t.Fatal("user must not rank as admin")
	}
}

func TestRoleJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(RoleAdmin)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"admin"` {
		t.Fatalf("unexpected encoding: %s", data)
	}

	var r Role
	if err := json.Unmarshal([]byte(`"superadmin"`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r != RoleSuperadmin {
		t.Fatalf("expected superadmin, got %v", r)
	}
	if err := json.Unmarshal([]byte(`"owner"`), &r); err == nil {
		t.Fatal("expected error for unknown role literal")
	}
}
