package support

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if !CheckPasswordHash("correct horse battery staple", hash) {
		t.Fatal("CheckPasswordHash rejected the original password")
	}
	if CheckPasswordHash("wrong password", hash) {
		t.Fatal("CheckPasswordHash accepted a different password")
	}
}
