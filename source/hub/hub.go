package hub

// The hub hosts named sessions the way a notebook server would: each session
// is an independent SharedSession, and the REPL's input either goes to the
// hub itself (lines starting 'hub') or becomes a cell in the current session
// and is executed at once.

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/paiml/ruchy-sub025/source/database"
	"github.com/paiml/ruchy-sub025/source/sandbox"
	"github.com/paiml/ruchy-sub025/source/session"
	"github.com/paiml/ruchy-sub025/source/text"
	"github.com/paiml/ruchy-sub025/source/values"
)

type Hub struct {
	sessions map[string]*session.SharedSession
	current  string
	out      io.Writer
	Db       *sql.DB
	Username string
	Password string
}

func New(out io.Writer) *Hub {
	hub := &Hub{
		sessions: map[string]*session.SharedSession{},
		out:      out,
	}
	hub.makeSession("scratch")
	hub.current = "scratch"
	return hub
}

func (hub *Hub) makeSession(name string) *session.SharedSession {
	s := session.NewSession(name)
	s.Out = hub.out
	hub.sessions[name] = s
	return s
}

func (hub *Hub) CurrentSessionName() string {
	return hub.current
}

func (hub *Hub) CurrentSession() *session.SharedSession {
	return hub.sessions[hub.current]
}

// Execute runs code in the named cell of the named session, creating the
// cell when the id is empty and the session when the name is unknown. This
// is the whole API a notebook frontend needs.
func (hub *Hub) Execute(code, cellId, sessionName string) session.ExecuteResponse {
	s, ok := hub.sessions[sessionName]
	if !ok {
		s = hub.makeSession(sessionName)
	}
	if cellId == "" {
		cellId = s.AddCell(code)
	} else if !s.UpdateCell(cellId, code) {
		cellId = s.AddCell(code)
	}
	return s.ExecuteCell(cellId, s.Mode)
}

// Do interprets one line of REPL input. It returns true when the user quits.
func (hub *Hub) Do(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "//") {
		return false
	}

	words := strings.Fields(line)
	if words[0] != "hub" {
		response := hub.Execute(line, "", hub.current)
		hub.writeResponse(response)
		return false
	}

	if len(words) == 1 {
		hub.WriteError("you need to say what you want the hub to do.")
		return false
	}
	return hub.doHubCommand(words[1], words[2:])
}

func (hub *Hub) doHubCommand(verb string, args []string) bool {
	switch verb {
	case "quit":
		hub.WriteString(text.OK + "\n")
		return true
	case "help":
		hub.help()
	case "new":
		if len(args) != 1 {
			hub.WriteError("'hub new' takes one argument, the session name.")
			break
		}
		if _, exists := hub.sessions[args[0]]; exists {
			hub.WriteError("there already is a session called " + text.Emph(args[0]) + ".")
			break
		}
		hub.makeSession(args[0])
		hub.current = args[0]
		hub.WriteString(text.OK + "\n")
	case "switch":
		if len(args) != 1 {
			hub.WriteError("'hub switch' takes one argument, the session name.")
			break
		}
		if _, exists := hub.sessions[args[0]]; !exists {
			hub.WriteError("the hub can't find a session called " + text.Emph(args[0]) + ".")
			break
		}
		hub.current = args[0]
		hub.WriteString(text.OK + "\n")
	case "sessions":
		hub.listSessions()
	case "cells":
		hub.listCells()
	case "mode":
		if len(args) != 1 {
			hub.WriteError("'hub mode' takes one argument: normal, reactive, or transactional.")
			break
		}
		mode, ok := session.ParseMode(args[0])
		if !ok {
			hub.WriteError(text.Emph(args[0]) + " isn't an execution mode: say normal, reactive, or transactional.")
			break
		}
		hub.CurrentSession().SetExecutionMode(mode)
		hub.WriteString(text.OK + "\n")
	case "vm":
		switch {
		case len(args) == 1 && args[0] == "on":
			hub.CurrentSession().UseVM = true
			hub.WriteString(text.OK + "\n")
		case len(args) == 1 && args[0] == "off":
			hub.CurrentSession().UseVM = false
			hub.WriteString(text.OK + "\n")
		default:
			hub.WriteError("'hub vm' takes one argument, on or off.")
		}
	case "sandbox":
		hub.setSandbox(args)
	case "run":
		if len(args) != 1 {
			hub.WriteError("'hub run' takes one argument, the cell id.")
			break
		}
		s := hub.CurrentSession()
		hub.writeResponse(s.ExecuteCell(args[0], s.Mode))
	case "run-all":
		for _, response := range hub.CurrentSession().ExecuteAll() {
			hub.writeResponse(response)
		}
	case "delete":
		if len(args) != 1 {
			hub.WriteError("'hub delete' takes one argument, the cell id.")
			break
		}
		if !hub.CurrentSession().DeleteCell(args[0]) {
			hub.WriteError("the session has no cell with id " + text.Emph(args[0]) + ".")
			break
		}
		hub.WriteString(text.OK + "\n")
	case "explain":
		if len(args) != 1 {
			hub.WriteError("'hub explain' takes one argument, the cell id.")
			break
		}
		explanation, e := hub.CurrentSession().ExplainReactive(args[0])
		if e != nil {
			hub.WriteError(e.Error())
			break
		}
		hub.WriteString(explanation + "\n")
	case "checkpoint":
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		checkpoint := hub.CurrentSession().CreateCheckpoint(name)
		hub.WriteString("Created checkpoint " + text.Emph(checkpoint.Name) + ".\n")
	case "rollback":
		if len(args) != 1 {
			hub.WriteError("'hub rollback' takes one argument, the checkpoint name.")
			break
		}
		if e := hub.CurrentSession().RestoreFromCheckpoint(args[0]); e != nil {
			hub.WriteError(e.Error())
			break
		}
		hub.WriteString(text.OK + "\n")
	case "globals":
		hub.listGlobals()
	case "memory":
		hub.WriteString(fmt.Sprintf("The session's state weighs roughly %v bytes.\n",
			hub.CurrentSession().EstimateMemory()))
	case "save":
		hub.saveSession(args)
	case "load":
		hub.loadSession(args)
	case "saved":
		if hub.Db == nil {
			hub.WriteError("no database is attached: do 'hub db' first.")
			break
		}
		result, err := database.ListSessions(hub.Db)
		if err != nil {
			hub.WriteError(err.Error())
			break
		}
		hub.WriteString(result)
	case "db":
		hub.configDb(args)
	case "register":
		hub.register(args)
	default:
		hub.WriteError("the hub doesn't know the verb " + text.Emph(verb) + ". Try 'hub help'.")
	}
	return false
}

func (hub *Hub) setSandbox(args []string) {
	if len(args) != 1 {
		hub.WriteError("'hub sandbox' takes one argument: educational, restricted, or off.")
		return
	}
	switch args[0] {
	case "educational":
		hub.CurrentSession().Sandbox = sandbox.Educational()
	case "restricted":
		hub.CurrentSession().Sandbox = sandbox.Restricted()
	case "off":
		hub.CurrentSession().Sandbox = nil
	default:
		hub.WriteError(text.Emph(args[0]) + " isn't a sandbox preset: say educational, restricted, or off.")
		return
	}
	hub.WriteString(text.OK + "\n")
}

func (hub *Hub) listSessions() {
	names := []string{}
	for name := range hub.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	result := "\nThe hub is running the following sessions:\n\n"
	for _, name := range names {
		marker := ""
		if name == hub.current {
			marker = " (current)"
		}
		result = result + text.BULLET + name + marker + "\n"
	}
	hub.WriteString(result + "\n")
}

func (hub *Hub) listCells() {
	s := hub.CurrentSession()
	if len(s.Cells) == 0 {
		hub.WriteString("The session has no cells.\n")
		return
	}
	ids := []string{}
	for id := range s.Cells {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := "\n"
	for _, id := range ids {
		cell := s.Cells[id]
		source := cell.Source
		if pos := strings.IndexByte(source, '\n'); pos != -1 {
			source = source[:pos] + " …"
		}
		result = result + text.BULLET + id + " [" + cell.State.String() + "] " + source + "\n"
	}
	hub.WriteString(result + "\n")
}

func (hub *Hub) listGlobals() {
	s := hub.CurrentSession()
	names := s.State.GlobalNames()
	if len(names) == 0 {
		hub.WriteString("The session has no globals.\n")
		return
	}
	result := "\n"
	for _, name := range names {
		g := s.State.Globals[name]
		result = result + text.BULLET + name + " = " + g.Value.Describe(values.ViewDebug) + "   (" + g.Cell + ")\n"
	}
	hub.WriteString(result + "\n")
}

func (hub *Hub) saveSession(args []string) {
	if hub.Db == nil {
		hub.WriteError("no database is attached: do 'hub db' first.")
		return
	}
	name := hub.current
	if len(args) == 1 {
		name = args[0]
	}
	state, e := hub.CurrentSession().ExportState()
	if e != nil {
		hub.WriteError(e.Error())
		return
	}
	if err := database.SaveSession(hub.Db, name, state); err != nil {
		hub.WriteError(err.Error())
		return
	}
	hub.WriteString("Saved session as " + text.Emph(name) + ".\n")
}

func (hub *Hub) loadSession(args []string) {
	if hub.Db == nil {
		hub.WriteError("no database is attached: do 'hub db' first.")
		return
	}
	if len(args) != 1 {
		hub.WriteError("'hub load' takes one argument, the saved session's name.")
		return
	}
	state, err := database.LoadSession(hub.Db, args[0])
	if err != nil {
		hub.WriteError(err.Error())
		return
	}
	s, ok := hub.sessions[args[0]]
	if !ok {
		s = hub.makeSession(args[0])
	}
	if e := s.ImportState(state); e != nil {
		hub.WriteError(e.Error())
		return
	}
	hub.current = args[0]
	hub.WriteString("Loaded session " + text.Emph(args[0]) + ".\n")
}

func (hub *Hub) configDb(args []string) {
	if len(args) != 2 && len(args) != 6 {
		hub.WriteError("'hub db' takes either a driver name and a file (for SQLite), or a driver, " +
			"host, port, name, username, and password.")
		return
	}
	driver := args[0]
	var db *sql.DB
	var err error
	if len(args) == 2 {
		db, err = database.GetdB(driver, "", "", args[1], "", "")
	} else {
		db, err = database.GetdB(driver, args[1], args[2], args[3], args[4], args[5])
	}
	if err != nil {
		hub.WriteError(err.Error())
		return
	}
	if err := database.InitTables(db); err != nil {
		hub.WriteError(err.Error())
		return
	}
	hub.Db = db
	hub.WriteString(text.OK + "\n")
}

func (hub *Hub) register(args []string) {
	if hub.Db == nil {
		hub.WriteError("no database is attached: do 'hub db' first.")
		return
	}
	if len(args) != 3 {
		hub.WriteError("'hub register' takes a username, an email address, and a password.")
		return
	}
	if err := database.AddUser(hub.Db, args[0], args[1], args[2]); err != nil {
		hub.WriteError(err.Error())
		return
	}
	hub.Username = args[0]
	hub.Password = args[2]
	hub.WriteString("Registered as " + text.Emph(args[0]) + ".\n")
}

func (hub *Hub) writeResponse(response session.ExecuteResponse) {
	if !response.Success {
		hub.WriteError(response.Error)
		return
	}
	if response.Value != "" && response.Value != "nil" {
		hub.WriteString(response.Value + "\n")
	}
	if len(response.AffectedCells) > 1 {
		hub.WriteString(text.Gray("also ran: "+strings.Join(response.AffectedCells[1:], ", ")) + "\n")
	}
}

// ResponseJSON renders an ExecuteResponse the way the HTTP surface would.
func ResponseJSON(response session.ExecuteResponse) []byte {
	out, _ := json.Marshal(response)
	return out
}

func (hub *Hub) help() {
	result := "\nThe hub understands the following verbs:\n\n"
	for _, line := range []string{
		"hub cells: lists the current session's cells",
		"hub checkpoint <name?>: snapshots the globals",
		"hub db <driver> <file | host port name user password>: attaches a database",
		"hub delete <cell>: removes a cell and what it defined",
		"hub explain <cell>: shows what a reactive run of the cell would do",
		"hub globals: lists the globals and which cell owns each",
		"hub help: this",
		"hub load <name>: loads a saved session",
		"hub memory: estimates the session's footprint",
		"hub mode <normal | reactive | transactional>: sets the execution mode",
		"hub new <name>: creates a session and switches to it",
		"hub quit: quits",
		"hub register <user> <email> <password>: registers with the hub",
		"hub rollback <name>: restores a checkpoint",
		"hub run <cell>: re-executes a cell",
		"hub run-all: executes every cell in dependency order",
		"hub sandbox <educational | restricted | off>: sets resource limits",
		"hub save <name?>: saves the session to the database",
		"hub saved: lists saved sessions",
		"hub sessions: lists running sessions",
		"hub switch <name>: switches sessions",
		"hub vm <on | off>: tries the bytecode engine first",
	} {
		result = result + text.BULLET + line + "\n"
	}
	hub.WriteString(result + "\n")
}

func (hub *Hub) WriteString(s string) {
	io.WriteString(hub.out, s)
}

func (hub *Hub) WriteError(s string) {
	io.WriteString(hub.out, "\n"+text.Red("error")+": "+s+"\n\n")
}
