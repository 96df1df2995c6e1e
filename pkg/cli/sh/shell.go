package sh

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	l0 "github.com/robotalks/mculink/pkg/l0/comm"
	"github.com/robotalks/mculink/pkg/l1"
	env "github.com/robotalks/mculink/pkg/l1/env/connector"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool
	Timeout     time.Duration

	Shell   *ishell.Shell
	Config  *env.Config
	Session *Session
}

// Session is an open device connection.
type Session struct {
	Ctx    context.Context
	Cancel func()
	Ref    l1.DeviceRef
	Conn   l1.DeviceConn
}

// Requester is implemented by connections able to match replies.
type Requester interface {
	Request(ctx context.Context, f l0.Frame, code byte) (l0.Frame, error)
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	timeout    = time.Second

	// commands
	commands = []*ishell.Cmd{
		&DiscoverCmd,
		&ConnectCmd,
		&DisconnectCmd,
		&WatchCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.DurationVar(&timeout, "timeout", timeout, "Timeout waiting for replies.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Timeout:     timeout,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Session == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// FormatInfo prints DeviceInfo into friendly string for display.
func FormatInfo(info l1.DeviceInfo) string {
	var w bytes.Buffer
	fmt.Fprintf(&w, "%s", info.Ref.Name())
	if info.Meta.Description != "" {
		fmt.Fprintf(&w, ": %s", info.Meta.Description)
	}
	return w.String()
}

// FrameOutput is the JSON form of a printed frame.
type FrameOutput struct {
	Code    byte   `json:"code"`
	Payload string `json:"payload"`
	Decoded string `json:"decoded,omitempty"`
}

// Decoder renders a frame payload in a friendly form.
// ok is false when the frame is not recognized.
type Decoder func(f *l0.Frame) (string, bool)

var decoders []Decoder

// AddDecoders is used by other commands providers during init func.
func AddDecoders(d ...Decoder) {
	decoders = append(decoders, d...)
}

// PrintFrame prints a received frame.
func (s *Shell) PrintFrame(c *ishell.Context, f *l0.Frame) {
	out := FrameOutput{Payload: f.String()}
	out.Code, _ = f.Code()
	for _, decode := range decoders {
		if str, ok := decode(f); ok {
			out.Decoded = str
			break
		}
	}
	if s.OutputJSON {
		data, err := json.Marshal(&out)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(data))
		return
	}
	if out.Decoded != "" {
		c.Println(out.Decoded)
		return
	}
	c.Printf("0x%02x %s\n", out.Code, out.Payload)
}

// DoRequest sends a frame and prints the reply with the same code.
// Connections without reply matching only send.
func DoRequest(c *ishell.Context, f l0.Frame) (err error) {
	s := ShellFrom(c)
	if s.Session == nil {
		err = fmt.Errorf("not connected")
		c.Err(err)
		return
	}
	code, ok := f.Code()
	req, matching := s.Session.Conn.(Requester)
	if !ok || !matching {
		if err = s.Session.Conn.Send(f); err != nil {
			c.Err(err)
			return
		}
		c.Println("OK")
		return
	}
	ctx, cancel := context.WithTimeout(s.Session.Ctx, s.Timeout)
	defer cancel()
	reply, err := req.Request(ctx, f, code)
	if err != nil {
		if err == context.DeadlineExceeded {
			err = fmt.Errorf("command timeout")
		}
		c.Err(err)
		return
	}
	s.PrintFrame(c, &reply)
	return nil
}

// DoSend sends a frame without waiting for a reply.
func DoSend(c *ishell.Context, f l0.Frame) error {
	s := ShellFrom(c)
	if s.Session == nil {
		err := fmt.Errorf("not connected")
		c.Err(err)
		return err
	}
	if err := s.Session.Conn.Send(f); err != nil {
		c.Err(err)
		return err
	}
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// DiscoverDevices discovers devices.
func (s *Shell) DiscoverDevices(filter func(l1.DeviceInfo) bool) (l1.Connector, []l1.DeviceInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, nil, err
	}
	infoList, err := connector.Discover(context.TODO())
	if err != nil {
		return connector, nil, err
	}
	if filter != nil {
		items := make([]l1.DeviceInfo, 0, len(infoList))
		for _, info := range infoList {
			if filter(info) {
				items = append(items, info)
			}
		}
		infoList = items
	}
	return connector, infoList, nil
}

// SelectDevice discovers devices and asks for a choice.
func (s *Shell) SelectDevice(filter func(l1.DeviceInfo) bool) (l1.Connector, *l1.DeviceInfo, error) {
	connector, infoList, err := s.DiscoverDevices(filter)
	if err != nil {
		return nil, nil, err
	}
	if len(infoList) == 0 {
		return connector, nil, nil
	}
	var index int
	if len(infoList) > 1 {
		if !s.Interactive {
			return nil, nil, fmt.Errorf("more than 1 devices discovered in non-interactive mode")
		}
		items := make([]string, len(infoList))
		for n, info := range infoList {
			items[n] = FormatInfo(info)
		}
		index = s.Shell.MultiChoice(items, "Which one to connect?")
	}

	return connector, &infoList[index], nil
}

// Connect connects device with ref.
func (s *Shell) Connect(ref l1.DeviceRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	session := &Session{Ref: ref}
	session.Ctx, session.Cancel = context.WithCancel(context.Background())
	if session.Conn, err = connector.Connect(session.Ctx, ref); err != nil {
		session.Cancel()
		return err
	}
	s.Disconnect()
	s.Session = session
	name := ref.Name()
	if !ref.IsValid() {
		name = s.Config.RegistryURL
	}
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
	return nil
}

// Disconnect disconnects current device.
func (s *Shell) Disconnect() {
	if s.Session != nil {
		s.Session.Conn.Close()
		s.Session.Cancel()
		s.Session = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Device != "" {
		ref := env.ParseRef(s.Config.Device)
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", ref.Name())
		}
		if err := s.Connect(ref); err != nil {
			log.Fatalf("connect %q failed: %v", ref.Name(), err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// DiscoverCmd discovers devices.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			_, infoList, err := s.DiscoverDevices(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if len(infoList) == 0 {
					// in case infoList is nil, make it empty slice.
					infoList = []l1.DeviceInfo{}
				}
				out, err := json.Marshal(infoList)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(infoList) == 0 {
				c.Println("No devices found")
				return
			}
			for _, info := range infoList {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TYPE/]ID",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var ref l1.DeviceRef
			if len(c.Args) >= 1 {
				ref = env.ParseRef(c.Args[0])
			} else {
				_, info, err := s.SelectDevice(nil)
				if err != nil {
					c.Err(err)
					return
				}
				if info == nil {
					c.Err(fmt.Errorf("no device discovered"))
					return
				}
				ref = info.Ref
			}
			if err := s.Connect(ref); err != nil {
				c.Err(err)
				return
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// WatchCmd prints received frames for a while.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[DURATION]",
		Func: MustBeConnected(func(c *ishell.Context) {
			dur := 5 * time.Second
			if len(c.Args) > 0 {
				val, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("invalid DURATION: %w", err))
					return
				}
				dur = val
			}
			s := ShellFrom(c)
			timeout := time.After(dur)
			for {
				select {
				case f := <-s.Session.Conn.Frames():
					s.PrintFrame(c, &f)
				case <-timeout:
					return
				case <-s.Session.Ctx.Done():
					return
				}
			}
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
