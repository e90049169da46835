package parser

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/martinsuchenak/vlanaudit/pkg/model"
	"pgregory.net/rapid"
)

const endpointDump = `Dynamic Endpoints:
Tenant      : PROD
Application : APP1
AEPg        : VLAN105_EPG

 End Point MAC      IP Address       Node        Interface
 00:50:56:AA:BB:01  10.10.5.21
 Node      Pair
 410       411        vpc 101-102-VPC-1-PG        vlan-105
                      vpc 201-202-VPC-1-PG        vlan-105
 410       411        vpc 101-102-VPC-1-PG        vlan-105
`

func TestParseEndpointOutput_Example(t *testing.T) {
	record, ok := ParseEndpointOutput(endpointDump)
	if !ok {
		t.Fatal("Expected endpoint to be found")
	}

	want := &model.EndpointRecord{
		VLAN:  "105",
		Pod:   model.Pod2,
		Paths: []string{"101-102-VPC-1-PG", "201-202-VPC-1-PG"},
	}
	if !reflect.DeepEqual(record, want) {
		t.Errorf("Expected %+v, got %+v", want, record)
	}
	if record.IP != "" {
		t.Errorf("Expected empty IP, got %q", record.IP)
	}
}

func TestParseEndpointOutput_NotFound(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no vlan", "Node Pair\n410 411 vpc 101-102-VPC-1-PG\n"},
		{"no vpc path", "Node Pair\n410 411 eth1/10 vlan-105\n"},
		{"port-channel is not a vpc", "po 101-102-PC-1-PG vlan-105\n"},
		{"unrelated text", "% Command not found\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, ok := ParseEndpointOutput(tt.text)
			if ok {
				t.Errorf("Expected not found, got %+v", record)
			}
			if record != nil {
				t.Errorf("Expected nil record, got %+v", record)
			}
		})
	}
}

func TestParseEndpointOutput_Pod(t *testing.T) {
	tests := []struct {
		name  string
		nodes string
		want  model.Pod
	}{
		{"no node block defaults to pod-1", "", model.Pod1},
		{"400 is pod-2", "Node\n400 401\n", model.Pod2},
		{"410 is pod-2", "Node\n410 411\n", model.Pod2},
		{"399 is pod-1", "Node\n399 398\n", model.Pod1},
		{"300 is pod-1", "Node\n300 301\n", model.Pod1},
		{"below 300 stays default", "Node\n201 202\n", model.Pod1},
		{"blank line between header and ids", "Node  Pair\n\n   410   411\n", model.Pod2},
		{"last classification wins", "Node\n410 411\nNode\n310 311\n", model.Pod1},
		{"later pod-2 wins", "Node\n310 311\nNode\n410 411\n", model.Pod2},
		{"unclassified block does not overwrite", "Node\n410 411\nNode\n101 102\n", model.Pod2},
		{"single number is ignored", "Node\n410\n", model.Pod1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := tt.nodes + "vpc 101-102-VPC-1-PG vlan-105\n"
			record, ok := ParseEndpointOutput(text)
			if !ok {
				t.Fatal("Expected endpoint to be found")
			}
			if record.Pod != tt.want {
				t.Errorf("Expected pod %s, got %s", tt.want, record.Pod)
			}
		})
	}
}

func TestParseEndpointOutput_LastVLANWins(t *testing.T) {
	text := "vpc 101-102-VPC-1-PG vlan-105\nvpc 101-102-VPC-1-PG vlan-210\n"
	record, ok := ParseEndpointOutput(text)
	if !ok {
		t.Fatal("Expected endpoint to be found")
	}
	if record.VLAN != "210" {
		t.Errorf("Expected VLAN 210, got %s", record.VLAN)
	}
}

func TestParseEndpointOutput_CaseInsensitive(t *testing.T) {
	text := "VPC 101-102-vpc-1-pg VLAN-0105\n"
	record, ok := ParseEndpointOutput(text)
	if !ok {
		t.Fatal("Expected endpoint to be found")
	}
	if record.VLAN != "0105" {
		t.Errorf("Expected VLAN to keep leading zero, got %s", record.VLAN)
	}
	if len(record.Paths) != 1 || record.Paths[0] != "101-102-vpc-1-pg" {
		t.Errorf("Expected path 101-102-vpc-1-pg, got %v", record.Paths)
	}
}

func TestParseEndpointOutput_CRLF(t *testing.T) {
	text := strings.ReplaceAll(endpointDump, "\n", "\r\n")
	record, ok := ParseEndpointOutput(text)
	if !ok {
		t.Fatal("Expected endpoint to be found")
	}
	if record.Pod != model.Pod2 || record.VLAN != "105" || len(record.Paths) != 2 {
		t.Errorf("Unexpected record from CRLF input: %+v", record)
	}
}

// vpcName draws a path name like 101-102-VPC-3-PG
func vpcName(t *rapid.T, label string) string {
	a := rapid.IntRange(101, 199).Draw(t, label+"-a")
	b := rapid.IntRange(101, 199).Draw(t, label+"-b")
	n := rapid.IntRange(1, 9).Draw(t, label+"-n")
	return fmt.Sprintf("%d-%d-VPC-%d-PG", a, b, n)
}

func TestParseEndpointOutput_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfN(rapid.Custom(func(t *rapid.T) string { return vpcName(t, "path") }), 1, 8).Draw(t, "names")
		vlans := rapid.SliceOfN(rapid.IntRange(1, 4094), 1, 8).Draw(t, "vlans")

		var b strings.Builder
		b.WriteString("Node  Pair\n")
		b.WriteString(fmt.Sprintf("%d %d\n", rapid.IntRange(100, 499).Draw(t, "node"), 1))
		for i, name := range names {
			// repeat every path to exercise set semantics
			b.WriteString(fmt.Sprintf("  vpc %s\n  vpc %s\n", name, name))
			if i < len(vlans) {
				b.WriteString(fmt.Sprintf("  vlan-%d\n", vlans[i]))
			}
		}
		for i := len(names); i < len(vlans); i++ {
			b.WriteString(fmt.Sprintf("  vlan-%d\n", vlans[i]))
		}
		text := b.String()

		first, ok := ParseEndpointOutput(text)
		if !ok {
			t.Fatalf("expected endpoint in %q", text)
		}

		second, _ := ParseEndpointOutput(text)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("parse is not idempotent: %+v vs %+v", first, second)
		}

		distinct := make(map[string]struct{})
		for _, n := range names {
			distinct[n] = struct{}{}
		}
		if len(first.Paths) != len(distinct) {
			t.Fatalf("expected %d distinct paths, got %d (%v)", len(distinct), len(first.Paths), first.Paths)
		}

		if want := fmt.Sprint(vlans[len(vlans)-1]); first.VLAN != want {
			t.Fatalf("expected last VLAN %s, got %s", want, first.VLAN)
		}
	})
}
