package verbs

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefineVerb(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    [][2]string
		wantErr bool
	}{
		{"single", []string{"tools.install"}, [][2]string{{"tools", "install"}}, false},
		{"nested domain", []string{"ops.db.migrate"}, [][2]string{{"ops.db", "migrate"}}, false},
		{"several", []string{"a.x", "b.y"}, [][2]string{{"a", "x"}, {"b", "y"}}, false},
		{"bare name", []string{"install"}, nil, true},
		{"trailing dot", []string{"tools."}, nil, true},
		{"leading dot", []string{".install"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [][2]string
			v := DefineVerb{Register: func(_ context.Context, domain, id string) error {
				got = append(got, [2]string{domain, id})
				return nil
			}}
			err := v.Run(context.Background(), tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("registered mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDefineVerbWrapsRegisterErrors(t *testing.T) {
	sentinel := errors.New("duplicate")
	v := DefineVerb{Register: func(context.Context, string, string) error { return sentinel }}
	if err := v.Run(context.Background(), []string{"tools.install"}); !errors.Is(err, sentinel) {
		t.Errorf("Run() error = %v, want wrapped %v", err, sentinel)
	}
	if err := (DefineVerb{}).Run(context.Background(), []string{"tools.install"}); err == nil {
		t.Error("Run() without a registry succeeded")
	}
	if got := (DefineVerb{}).Name(); got != "verbs.define" {
		t.Errorf("Name() = %q", got)
	}
}

func TestRegisterVerb(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    [2]string
		wantErr bool
	}{
		{"top level", []string{"tools"}, [2]string{"tools", ""}, false},
		{"with parent", []string{"db", "ops"}, [2]string{"db", "ops"}, false},
		{"no arguments", nil, [2]string{}, true},
		{"too many", []string{"a", "b", "c"}, [2]string{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [2]string
			v := RegisterVerb{RegisterDomain: func(_ context.Context, name, parent string) error {
				got = [2]string{name, parent}
				return nil
			}}
			err := v.Run(context.Background(), tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("RegisterDomain got %v, want %v", got, tt.want)
			}
		})
	}
}
