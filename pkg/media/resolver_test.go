package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name string
		ref  Reference
		want string
	}{
		{
			name: "absolute http url passes through",
			ref:  Reference{Category: CategoryProfilePhoto, Stored: "http://cdn.example.com/a.jpg"},
			want: "http://cdn.example.com/a.jpg",
		},
		{
			name: "absolute https url passes through",
			ref:  Reference{Category: CategoryClubLogo, Stored: "https://bucket.s3.us-east-1.amazonaws.com/images/club_logos/x.png"},
			want: "https://bucket.s3.us-east-1.amazonaws.com/images/club_logos/x.png",
		},
		{
			name: "local path made root-relative",
			ref:  Reference{Category: CategoryProfilePhoto, Stored: "images/profile_photos/123-abc-me.jpg"},
			want: "/images/profile_photos/123-abc-me.jpg",
		},
		{
			name: "rooted path unchanged",
			ref:  Reference{Category: CategoryProfilePhoto, Stored: "/images/profile_photos/123-abc-me.jpg"},
			want: "/images/profile_photos/123-abc-me.jpg",
		},
		{
			name: "empty reference gets the category default",
			ref:  Reference{Category: CategoryProfilePhoto},
			want: "/images/profile_photos/default-profile_photo.jpg",
		},
		{
			name: "whitespace-only reference gets the category default",
			ref:  Reference{Category: CategoryCollegeLogo, Stored: "  "},
			want: "/images/college_logos/default-college_logo.jpg",
		},
		{
			name: "event banners synthesize the same convention",
			ref:  Reference{Category: CategoryEventBanner},
			want: "/images/event_logos/default-event_logo.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.ref); got != tt.want {
				t.Errorf("Resolve(%+v) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	r := NewResolver()

	refs := []Reference{
		{Category: CategoryProfilePhoto, Stored: "images/profile_photos/a.jpg"},
		{Category: CategoryClubLogo, Stored: "https://cdn.example.com/b.png"},
		{Category: CategoryCollegeLogo},
	}

	for _, ref := range refs {
		once := r.Resolve(ref)
		twice := r.Resolve(Reference{Category: ref.Category, Stored: once})
		if once != twice {
			t.Errorf("Resolve is not idempotent for %+v: %q then %q", ref, once, twice)
		}
	}
}

func TestDefaultPathUnknownCategory(t *testing.T) {
	// Unknown categories resolve by the same convention rather than
	// failing.
	got := NewResolver().Resolve(Reference{Category: Category("banners")})
	if got != "/images/banners/default-banner.jpg" {
		t.Errorf("Resolve() = %q, want %q", got, "/images/banners/default-banner.jpg")
	}
}

func TestNewResolverFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "defaults.yaml")
	content := "profile_photos: /static/anon.png\nclub_logos: /static/club.png\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write defaults file: %v", err)
	}

	r, err := NewResolverFromFile(file)
	if err != nil {
		t.Fatalf("NewResolverFromFile() error = %v", err)
	}

	if got := r.Resolve(Reference{Category: CategoryProfilePhoto}); got != "/static/anon.png" {
		t.Errorf("override not applied: got %q", got)
	}
	// Categories without an override keep the convention.
	if got := r.Resolve(Reference{Category: CategoryCollegeLogo}); got != "/images/college_logos/default-college_logo.jpg" {
		t.Errorf("unexpected default for college logos: %q", got)
	}
}

func TestNewResolverFromFileMissing(t *testing.T) {
	if _, err := NewResolverFromFile("/nonexistent/defaults.yaml"); err == nil {
		t.Error("NewResolverFromFile() expected an error for a missing file")
	}
}
