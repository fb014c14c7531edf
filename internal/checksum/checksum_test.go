package checksum

import "testing"

func TestSum(t *testing.T) {
	got := Sum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("Sum = %s, want %s", got, want)
	}
}

func TestShort(t *testing.T) {
	if got := Short([]byte("abc")); got != "ba7816bf8f01" {
		t.Fatalf("Short = %s", got)
	}
}
