package common

import "testing"

func TestVec3(t *testing.T) {
	v := Vec3(1, 2.5, -3)
	if len(v) != 3 || v[0] != 1 || v[1] != 2.5 || v[2] != -3 {
		t.Errorf("unexpected vector %v", v)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	v := Vec3(1, 2, 3)
	c := v.Clone()
	c[0] = 99
	if v[0] != 1 {
		t.Error("Clone must not share backing storage")
	}
}
