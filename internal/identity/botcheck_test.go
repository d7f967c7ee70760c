package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func botCheckServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestBotCheckAccepts(t *testing.T) {
	srv := botCheckServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.PostForm.Get("secret") != "s3cret" {
			t.Fatalf("secret = %q", r.PostForm.Get("secret"))
		}
		if r.PostForm.Get("response") != "client-token" {
			t.Fatalf("response = %q", r.PostForm.Get("response"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"action":"register"}`))
	})

	v := NewBotCheckVerifier(BotCheckConfig{VerifyURL: srv.URL, Secret: "s3cret"})
	res := v.Verify(context.Background(), "client-token", "register")
	if !res.Accepted {
		t.Fatalf("rejected: %v", res.ErrorCodes)
	}
}

func TestBotCheckRejects(t *testing.T) {
	srv := botCheckServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	})

	v := NewBotCheckVerifier(BotCheckConfig{VerifyURL: srv.URL, Secret: "s3cret"})
	res := v.Verify(context.Background(), "client-token", "register")
	if res.Accepted {
		t.Fatal("accepted a rejected token")
	}
	if len(res.ErrorCodes) != 1 || res.ErrorCodes[0] != "invalid-input-response" {
		t.Fatalf("codes = %v", res.ErrorCodes)
	}
}

func TestBotCheckActionMismatch(t *testing.T) {
	srv := botCheckServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"action":"login"}`))
	})

	v := NewBotCheckVerifier(BotCheckConfig{VerifyURL: srv.URL, Secret: "s3cret"})
	if res := v.Verify(context.Background(), "client-token", "register"); res.Accepted {
		t.Fatal("accepted a token minted for another action")
	}
}

func TestBotCheckMissingToken(t *testing.T) {
	v := NewBotCheckVerifier(BotCheckConfig{VerifyURL: "http://unused.invalid", Secret: "s3cret"})
	if res := v.Verify(context.Background(), "", "register"); res.Accepted {
		t.Fatal("accepted an empty token")
	}
}

func TestBotCheckMissingSecret(t *testing.T) {
	v := NewBotCheckVerifier(BotCheckConfig{VerifyURL: "http://unused.invalid"})
	if res := v.Verify(context.Background(), "client-token", "register"); res.Accepted {
		t.Fatal("accepted without a configured secret")
	}
}

func TestBotCheckEndpointFailures(t *testing.T) {
	// Non-2xx and undecodable bodies both come back as rejection, never a
	// pass-through.
	badStatus := botCheckServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	badBody := botCheckServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	for name, url := range map[string]string{
		"bad status":  badStatus.URL,
		"bad body":    badBody.URL,
		"unreachable": "http://127.0.0.1:1",
	} {
		v := NewBotCheckVerifier(BotCheckConfig{VerifyURL: url, Secret: "s3cret"})
		if res := v.Verify(context.Background(), "client-token", ""); res.Accepted {
			t.Fatalf("%s: accepted", name)
		}
	}
}
