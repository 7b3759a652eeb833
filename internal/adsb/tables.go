package adsb

// Class is a human readable classification of a small header code
type Class struct {
	Name  string
	Known bool
}

// Unclassified is returned for codes missing from a table
var Unclassified = Class{}

func (c Class) String() string {
	if !c.Known {
		return "unrecognized"
	}
	return c.Name
}

func classify(table []string, code uint8) Class {
	if int(code) >= len(table) || table[code] == "" {
		return Unclassified
	}
	return Class{Name: table[code], Known: true}
}

var downlinkFormats = [32]string{
	17: "ADS-B Message",
	18: "TIS-B Message",
}

var capabilities = [8]string{
	0: "Level 1 Transponder",
	1: "Reserved",
	2: "Reserved",
	3: "Reserved",
	4: "Level 2+ Transponder w/ ability to CA 7 on-ground",
	5: "Level 2+ Transponder w/ ability to CA 7 airborne",
	6: "Level 2+ Transponder w/ ability to CA 7 in any case",
	7: "Downlink Request is 0 or Flight Status is 2, 3, 4, or 5",
}

var typeCodes = func() [32]string {
	var t [32]string
	fill := func(from, to int, name string) {
		for tc := from; tc <= to; tc++ {
			t[tc] = name
		}
	}
	fill(1, 4, "Aircraft Identification")
	fill(5, 8, "Surface Position")
	fill(9, 18, "Airborne Position (w/ Baro Altitude)")
	fill(19, 19, "Airborne Velocities")
	fill(20, 22, "Airborne Position (w/ GNSS Height)")
	fill(23, 27, "Reserved")
	fill(28, 28, "Aircraft Status")
	fill(29, 29, "Target State and Status Information")
	fill(31, 31, "Aircraft Operation Status")
	return t
}()

// DownlinkFormatClass classifies a 5-bit downlink format
func DownlinkFormatClass(df uint8) Class {
	return classify(downlinkFormats[:], df)
}

// CapabilityClass classifies a 3-bit transponder capability
func CapabilityClass(ca uint8) Class {
	return classify(capabilities[:], ca)
}

// TypeCodeClass classifies the 5-bit extended squitter type code
func TypeCodeClass(tc uint8) Class {
	return classify(typeCodes[:], tc)
}
