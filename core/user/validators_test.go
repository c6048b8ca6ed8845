package user

import (
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		uname   string
		email   string
		wantTag string
	}{
		{name: "empty", pwd: ""},
		{name: "too short", pwd: "xK9#mLq", uname: "bob", email: "bob@example.com", wantTag: pwdMinLenTag},
		{name: "similar to username", pwd: "alice1234", uname: "alice", email: "a@example.com", wantTag: pwdAttrSimTag},
		{name: "similar to email local part", pwd: "jdoe2jdoe", uname: "bob", email: "jdoe2@example.com", wantTag: pwdAttrSimTag},
		{name: "common", pwd: "password", uname: "bob", email: "bob@example.com", wantTag: pwdNoCommonTag},
		{name: "common any case", pwd: "PassWord", uname: "bob", email: "bob@example.com", wantTag: pwdNoCommonTag},
		{name: "all numeric", pwd: "5820147396", uname: "bob", email: "bob@example.com", wantTag: pwdNotAllNumTag},
		{name: "valid", pwd: "xK9#mLq2vTz!", uname: "bob", email: "bob@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validatePassword(tt.pwd, tt.uname, tt.email); got != tt.wantTag {
				t.Errorf("validatePassword() = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestLoadCommonPasswords(t *testing.T) {
	if len(commonPasswords) == 0 {
		t.Fatal("no common passwords loaded")
	}
	for i := 1; i < len(commonPasswords); i++ {
		if commonPasswords[i-1] > commonPasswords[i] {
			t.Fatalf("common passwords not sorted at %d", i)
		}
	}
}

func TestUser_HasPerm(t *testing.T) {
	tests := []struct {
		name string
		usr  User
		perm string
		want bool
	}{
		{name: "granted", usr: User{IsActive: true, Permissions: []string{PermViewStudent}}, perm: PermViewStudent, want: true},
		{name: "not granted", usr: User{IsActive: true, Permissions: []string{PermViewStudent}}, perm: PermAddTeacher},
		{name: "superuser", usr: User{IsActive: true, IsSuperuser: true}, perm: PermDeleteTeacher, want: true},
		{name: "inactive superuser", usr: User{IsSuperuser: true}, perm: PermViewStudent},
		{name: "inactive", usr: User{Permissions: []string{PermViewStudent}}, perm: PermViewStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.usr.HasPerm(tt.perm); got != tt.want {
				t.Errorf("HasPerm() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_CheckPassword(t *testing.T) {
	var usr User
	if err := usr.SetPassword("xK9#mLq2vTz!"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if err := usr.CheckPassword("xK9#mLq2vTz!"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}
	if err := usr.CheckPassword("wrong"); err == nil {
		t.Error("CheckPassword() accepted a wrong password")
	}
}
