package domain

import "testing"

func TestParseDims(t *testing.T) {
	d, err := ParseDims("192x192")
	if err != nil {
		t.Fatalf("expected valid dims, got error: %v", err)
	}
	if d.W != 192 || d.H != 192 {
		t.Fatalf("expected 192x192, got %s", d)
	}

	d, err = ParseDims(" 480X128 ")
	if err != nil {
		t.Fatalf("expected mixed-case dims to parse, got error: %v", err)
	}
	if d.String() != "480x128" {
		t.Fatalf("expected 480x128, got %s", d)
	}

	for _, bad := range []string{"", "192", "0x10", "10x-2", "axb", "10x"} {
		if _, err := ParseDims(bad); err == nil {
			t.Fatalf("expected parse error for %q", bad)
		}
	}
}

func TestParseModeDefaultsToPad(t *testing.T) {
	mode, err := ParseMode("")
	if err != nil {
		t.Fatalf("expected empty mode to parse, got error: %v", err)
	}
	if mode != ModePad {
		t.Fatalf("expected pad, got %s", mode)
	}

	if _, err := ParseMode("mirror"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestTransformSpecValidate(t *testing.T) {
	size := Dims{W: 192, H: 192}

	valid := TransformSpec{Size: &size, Mode: ModePad}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid spec, got error: %v", err)
	}

	nativeCopy := TransformSpec{Mode: ModeCopy}
	if err := nativeCopy.Validate(); err != nil {
		t.Fatalf("expected nil-size copy to validate, got error: %v", err)
	}

	blankNoSize := TransformSpec{Mode: ModeBlank}
	if err := blankNoSize.Validate(); err == nil {
		t.Fatal("expected validation error for blank without size")
	}

	marginOnPad := TransformSpec{Size: &size, Mode: ModePad, Margin: 0.5}
	if err := marginOnPad.Validate(); err == nil {
		t.Fatal("expected validation error for margin fraction outside margin mode")
	}

	marginTooBig := TransformSpec{Size: &size, Mode: ModeMargin, Margin: 1.5}
	if err := marginTooBig.Validate(); err == nil {
		t.Fatal("expected validation error for margin fraction >= 1")
	}

	zeroDims := Dims{}
	zeroSize := TransformSpec{Size: &zeroDims, Mode: ModeStretch}
	if err := zeroSize.Validate(); err == nil {
		t.Fatal("expected validation error for zero target size")
	}
}

func TestTransformSpecEffectiveMargin(t *testing.T) {
	spec := TransformSpec{Mode: ModeMargin}
	if got := spec.EffectiveMargin(); got != DefaultMargin {
		t.Fatalf("expected default margin %v, got %v", DefaultMargin, got)
	}

	spec.Margin = 0.5
	if got := spec.EffectiveMargin(); got != 0.5 {
		t.Fatalf("expected margin 0.5, got %v", got)
	}
}

func TestTaskValidate(t *testing.T) {
	size := Dims{W: 48, H: 48}

	valid := Task{
		Role: RoleIcon,
		Dest: "android/app/src/main/res/mipmap-mdpi/ic_launcher.png",
		Spec: TransformSpec{Size: &size, Mode: ModePad},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}

	traversal := valid
	traversal.Dest = "../outside.png"
	if err := traversal.Validate(); err == nil {
		t.Fatal("expected validation error for parent traversal in dest")
	}

	absolute := valid
	absolute.Dest = "/etc/icon.png"
	if err := absolute.Validate(); err == nil {
		t.Fatal("expected validation error for absolute dest")
	}

	unknownRole := valid
	unknownRole.Role = "banner"
	if err := unknownRole.Validate(); err == nil {
		t.Fatal("expected validation error for unknown role")
	}

	blankWithRole := Task{
		Role: RoleIcon,
		Dest: "res/mipmap-mdpi/ic_launcher_background.png",
		Spec: TransformSpec{Size: &size, Mode: ModeBlank},
	}
	if err := blankWithRole.Validate(); err == nil {
		t.Fatal("expected validation error for blank task with a role")
	}

	blank := blankWithRole
	blank.Role = ""
	if err := blank.Validate(); err != nil {
		t.Fatalf("expected valid blank task, got error: %v", err)
	}
}

func TestRunReportTotals(t *testing.T) {
	report := RunReport{
		Catalogs: []CatalogReport{
			{Name: "web-icons", Succeeded: 2, Expected: 2},
			{Name: "ios-icons", Succeeded: 33, Expected: 35},
		},
	}

	succeeded, expected := report.Totals()
	if succeeded != 35 || expected != 37 {
		t.Fatalf("expected totals 35/37, got %d/%d", succeeded, expected)
	}
	if report.Complete() {
		t.Fatal("expected incomplete run")
	}

	report.Catalogs[1].Succeeded = 35
	if !report.Complete() {
		t.Fatal("expected complete run")
	}
}
