package classifier

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"MENU", "menu"},
		{"  Olá  ", "ola"},
		{"Localização", "localizacao"},
		{"não entendi", "nao entendi"},
		{"AÇÃO ÀÉÎÕÜ", "acao aeiou"},
		{"preço\n", "preco"},
		{"agendar 15/02 14h", "agendar 15/02 14h"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Horários", "  Bom Dia ", "São Paulo", "x", "Federação Paulista de Tiro"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestDetectScheduleRequest(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{name: "date and hour", in: "agendar 15/02 14h", want: "15/02 14h", wantOK: true},
		{name: "upper case keeps remainder verbatim", in: "  AGENDAR Sábado às 10h ", want: "Sábado às 10h", wantOK: true},
		{name: "accented command", in: "Agendár amanhã", want: "amanhã", wantOK: true},
		{name: "bare command", in: "agendar", wantOK: false},
		{name: "command with spaces only", in: "agendar    ", wantOK: false},
		{name: "different word", in: "agendamento", wantOK: false},
		{name: "command not first", in: "quero agendar sexta", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectScheduleRequest(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("DetectScheduleRequest(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("DetectScheduleRequest(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
