package reply

import "testing"

func TestTryParse(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{`{"a":1}`, true},
		{`  [1,2]  `, true},
		{`"quoted"`, true},
		{`42`, false},
		{`hello`, false},
		{`{"a":`, false},
		{`{"a":1} trailing`, false},
		{``, false},
	}
	for _, tc := range cases {
		if _, ok := TryParse(tc.in); ok != tc.ok {
			t.Fatalf("TryParse(%q) ok = %v, want %v", tc.in, ok, tc.ok)
		}
	}
}

func TestObject_FromEmbeddedJSON(t *testing.T) {
	obj, ok := Text(`{"provider":"kakao"}`).Object()
	if !ok || obj["provider"] != "kakao" {
		t.Fatalf("Object() = %v, %v", obj, ok)
	}
	if _, ok := Text("plain").Object(); ok {
		t.Fatalf("plain text should not be an object")
	}
	if _, ok := Text(`[1]`).Object(); ok {
		t.Fatalf("array should not be an object")
	}
}

func TestObject_UnwrapsDoubleEncodedObject(t *testing.T) {
	raw := Text(`"{\"auth_required\":true,\"auth_url\":\"http://login.test\",\"provider\":\"kakao\"}"`)
	obj, ok := raw.Object()
	if !ok || obj["auth_required"] != true || obj["provider"] != "kakao" {
		t.Fatalf("Object() = %v, %v", obj, ok)
	}
	if _, ok := Text(`"just a quoted sentence"`).Object(); ok {
		t.Fatalf("quoted plain text should not be an object")
	}
	// 只解一层
	if _, ok := Text(`"\"{\\\"a\\\":1}\""`).Object(); ok {
		t.Fatalf("triple-encoded object should not be unwrapped")
	}
}

func TestDecode(t *testing.T) {
	r, err := Decode([]byte(`{"repos":[{"name":"x"}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := r.Object(); !ok {
		t.Fatalf("decoded value is not an object: %#v", r.Value())
	}

	r, err = Decode([]byte(`"hello"`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s, ok := r.Text(); !ok || s != "hello" {
		t.Fatalf("Text() = %q, %v", s, ok)
	}

	if _, err := Decode([]byte(`{`)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestString(t *testing.T) {
	if got := Text("a\nb").String(); got != "a\nb" {
		t.Fatalf("String() = %q", got)
	}
	if got := FromValue(map[string]any{"k": "v"}).String(); got != "{\n  \"k\": \"v\"\n}" {
		t.Fatalf("String() = %q", got)
	}
	if got := (Raw{}).String(); got != "" {
		t.Fatalf("zero String() = %q", got)
	}
}
