package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/emberwell/wellness-backend/internal/model"
)

func TestExtractBearer(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/", nil)
	if _, err := ExtractBearer(r); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("missing header: want ErrUnauthorized, got %v", err)
	}
	r.Header.Set("Authorization", "Basic abc")
	if _, err := ExtractBearer(r); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("non-bearer: want ErrUnauthorized, got %v", err)
	}
	r.Header.Set("Authorization", "Bearer tok-123")
	tok, err := ExtractBearer(r)
	if err != nil || tok != "tok-123" {
		t.Fatalf("bearer: got %q err=%v", tok, err)
	}
}

func TestStaticAuthorizer(t *testing.T) {
	a := NewStaticAuthorizer()
	p, err := a.Authorize(context.Background(), "dev-casey")
	if err != nil || p.UserID != "casey" {
		t.Fatalf("dev token: got %+v err=%v", p, err)
	}
	if _, err := a.Authorize(context.Background(), "casey"); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("bare token: want ErrUnauthorized, got %v", err)
	}
}

func TestJWTAuthorizer(t *testing.T) {
	key := []byte("test-signing-key")
	a := NewJWTAuthorizer(key)

	mint := func(claims jwt.MapClaims, k []byte) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(k)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	good := mint(jwt.MapClaims{"sub": "casey", "exp": time.Now().Add(time.Hour).Unix()}, key)
	p, err := a.Authorize(context.Background(), good)
	if err != nil || p.UserID != "casey" {
		t.Fatalf("valid token: got %+v err=%v", p, err)
	}

	expired := mint(jwt.MapClaims{"sub": "casey", "exp": time.Now().Add(-time.Hour).Unix()}, key)
	if _, err := a.Authorize(context.Background(), expired); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("expired token: want ErrUnauthorized, got %v", err)
	}

	wrongKey := mint(jwt.MapClaims{"sub": "casey", "exp": time.Now().Add(time.Hour).Unix()}, []byte("other"))
	if _, err := a.Authorize(context.Background(), wrongKey); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("wrong key: want ErrUnauthorized, got %v", err)
	}

	noSub := mint(jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}, key)
	if _, err := a.Authorize(context.Background(), noSub); !errors.Is(err, model.ErrUnauthorized) {
		t.Fatalf("no subject: want ErrUnauthorized, got %v", err)
	}
}
