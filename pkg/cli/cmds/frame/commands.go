package frame

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/mculink/pkg/cli/sh"
	l0 "github.com/robotalks/mculink/pkg/l0/comm"
)

// ArgsHelp describes the payload arguments.
const ArgsHelp = "HEX|u16:N|f32:N|s:TEXT ..."

// Build composes a frame from arguments. Each argument appends to the
// payload:
//
//	10ff     hex bytes, an optional 0x prefix is allowed
//	u16:N    16-bit unsigned big-endian
//	f32:N    32-bit float big-endian
//	s:TEXT   raw text
func Build(args []string) (f l0.Frame, err error) {
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "u16:"):
			var val uint64
			if val, err = strconv.ParseUint(arg[4:], 0, 16); err != nil {
				return f, fmt.Errorf("invalid %q: %w", arg, err)
			}
			err = f.AddU16(uint16(val))
		case strings.HasPrefix(arg, "f32:"):
			var val float64
			if val, err = strconv.ParseFloat(arg[4:], 32); err != nil {
				return f, fmt.Errorf("invalid %q: %w", arg, err)
			}
			err = f.AddF32(float32(val))
		case strings.HasPrefix(arg, "s:"):
			err = f.AddData([]byte(arg[2:]))
		default:
			var data []byte
			if data, err = hex.DecodeString(strings.TrimPrefix(arg, "0x")); err != nil {
				return f, fmt.Errorf("invalid %q: %w", arg, err)
			}
			err = f.AddData(data)
		}
		if err != nil {
			return f, err
		}
	}
	return f, nil
}

func buildOrErr(c *ishell.Context) (l0.Frame, bool) {
	f, err := Build(c.Args)
	if err != nil {
		c.Err(err)
		return f, false
	}
	if f.Len() == 0 {
		c.Err(fmt.Errorf("payload required"))
		return f, false
	}
	return f, true
}

var (
	// SendCmd sends a frame.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    ArgsHelp,
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if f, ok := buildOrErr(c); ok {
				if sh.DoSend(c, f) == nil {
					c.Println("OK")
				}
			}
		}),
	}

	// RequestCmd sends a frame and waits for a reply with the same code.
	RequestCmd = ishell.Cmd{
		Name:    "request",
		Aliases: []string{"req", "r"},
		Help:    ArgsHelp,
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if f, ok := buildOrErr(c); ok {
				sh.DoRequest(c, f)
			}
		}),
	}

	// EncodeCmd prints the wire form of a frame without sending.
	EncodeCmd = ishell.Cmd{
		Name:    "encode",
		Aliases: []string{"enc"},
		Help:    ArgsHelp,
		Func: func(c *ishell.Context) {
			if f, ok := buildOrErr(c); ok {
				c.Println(hex.EncodeToString(f.Bytes()))
			}
		},
	}
)

func init() {
	sh.AddCmds(&SendCmd, &RequestCmd, &EncodeCmd)
}
