package vm

import "testing"

func TestParseFieldDescriptor(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
	}{
		{"B", KindByte},
		{"C", KindChar},
		{"D", KindDouble},
		{"F", KindFloat},
		{"I", KindInt},
		{"J", KindLong},
		{"S", KindShort},
		{"Z", KindBoolean},
		{"Ljava/lang/Object;", KindReference},
		{"[I", KindArray},
		{"[[Ljava/lang/String;", KindArray},
	}
	for _, c := range cases {
		got, err := ParseFieldDescriptor(c.in)
		if err != nil {
			t.Errorf("ParseFieldDescriptor(%q): %v", c.in, err)
			continue
		}
		if got.Kind != c.kind {
			t.Errorf("ParseFieldDescriptor(%q): kind %v, want %v", c.in, got.Kind, c.kind)
		}
		if got.Descriptor() != c.in {
			t.Errorf("descriptor round trip %q: got %q", c.in, got.Descriptor())
		}
	}
}

func TestParseFieldDescriptorErrors(t *testing.T) {
	for _, in := range []string{"", "Q", "L;", "Ljava/lang/Object", "[", "II", "Ix"} {
		if _, err := ParseFieldDescriptor(in); err == nil {
			t.Errorf("ParseFieldDescriptor(%q) succeeded, want error", in)
		}
	}
}

func TestParseFieldDescriptorReference(t *testing.T) {
	got, err := ParseFieldDescriptor("Ljava/util/List;")
	if err != nil {
		t.Fatalf("ParseFieldDescriptor: %v", err)
	}
	if got.Name != "java/util/List" {
		t.Errorf("name: got %q", got.Name)
	}
}

func TestParseFieldDescriptorNestedArray(t *testing.T) {
	got, err := ParseFieldDescriptor("[[J")
	if err != nil {
		t.Fatalf("ParseFieldDescriptor: %v", err)
	}
	if got.Kind != KindArray || got.Elem.Kind != KindArray || got.Elem.Elem.Kind != KindLong {
		t.Errorf("got %v", got)
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	sig, err := ParseMethodDescriptor("main", "([Ljava/lang/String;)V")
	if err != nil {
		t.Fatalf("ParseMethodDescriptor: %v", err)
	}
	if sig.Name != "main" {
		t.Errorf("name: got %q", sig.Name)
	}
	if len(sig.Params) != 1 || sig.Params[0].Kind != KindArray {
		t.Errorf("params: got %v", sig.Params)
	}
	if sig.Return != nil {
		t.Errorf("return: got %v, want void", sig.Return)
	}
}

func TestParseMethodDescriptorMultipleParams(t *testing.T) {
	sig, err := ParseMethodDescriptor("compute", "(IJLjava/lang/String;D)Ljava/lang/Object;")
	if err != nil {
		t.Fatalf("ParseMethodDescriptor: %v", err)
	}
	kinds := []Kind{KindInt, KindLong, KindReference, KindDouble}
	if len(sig.Params) != len(kinds) {
		t.Fatalf("got %d params, want %d", len(sig.Params), len(kinds))
	}
	for i, k := range kinds {
		if sig.Params[i].Kind != k {
			t.Errorf("param %d: kind %v, want %v", i, sig.Params[i].Kind, k)
		}
	}
	if sig.Return == nil || sig.Return.Name != "java/lang/Object" {
		t.Errorf("return: got %v", sig.Return)
	}
}

func TestParseMethodDescriptorErrors(t *testing.T) {
	for _, in := range []string{"", "I", "(I", "(IV", "()", "()VV", "()Ix", "(Q)V"} {
		if _, err := ParseMethodDescriptor("m", in); err == nil {
			t.Errorf("ParseMethodDescriptor(%q) succeeded, want error", in)
		}
	}
}

func TestDefaultValues(t *testing.T) {
	cases := []struct {
		t    Type
		want ValueType
	}{
		{Type{Kind: KindInt}, TypeInt},
		{Type{Kind: KindBoolean}, TypeInt},
		{Type{Kind: KindLong}, TypeLong},
		{Type{Kind: KindFloat}, TypeFloat},
		{Type{Kind: KindDouble}, TypeDouble},
		{Type{Kind: KindReference, Name: "java/lang/Object"}, TypeNull},
		{Type{Kind: KindArray, Elem: &Type{Kind: KindInt}}, TypeNull},
	}
	for _, c := range cases {
		got := c.t.DefaultValue()
		if got.Type != c.want {
			t.Errorf("DefaultValue(%s): got %v, want %v", c.t, got.Type, c.want)
		}
	}
}
