package logging

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	mu        sync.Mutex
	output    io.Writer = color.Output
	blacklist           = map[string]string{}

	protocolPrefixColor  = color.New(color.FgWhite, color.BgBlue).SprintfFunc()
	underlinePrefixColor = color.New(color.Underline).SprintFunc()

	freeLevel    = NewLoggerLevel("")
	descLevel    = NewLoggerLevel("DESCRIPTION", color.FgGreen)
	infoLevel    = NewLoggerLevel("INFO", color.FgHiBlue)
	warningLevel = NewLoggerLevel("WARNING", color.FgYellow)
	errorLevel   = NewLoggerLevel("ERROR", color.FgRed)

	Freef    = freeLevel.Printf
	Descf    = descLevel.Printf
	Infof    = infoLevel.Printf
	Warningf = warningLevel.Printf
	Errorf   = errorLevel.Printf
)

const (
	ProtoAPP    = "APP"
	ProtoCONFIG = "CONFIG"
	ProtoCERT   = "CERT"
	ProtoEXEC   = "EXEC"
	ProtoSTUN   = "STUN"
	ProtoTURN   = "TURN"
)

type ColorFunc func(format string, v ...interface{}) string

type LoggerLevel struct {
	logLevelPrefix string
	colorFunc      ColorFunc
}

func NewLoggerLevel(logLevelPrefix string, colorAttributes ...color.Attribute) *LoggerLevel {
	//Color module should be enabled, if you don't this, color module doesn't act as expected.
	color.NoColor = false
	return &LoggerLevel{
		logLevelPrefix: logLevelPrefix,
		colorFunc:      color.New(colorAttributes...).SprintfFunc(),
	}
}

// SetOutput replaces the destination of all levels and returns the previous one.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	previous := output
	output = w
	return previous
}

func (l *LoggerLevel) processString(s string, colorFunc ColorFunc) string {
	startTag := "<u>"
	endTag := "</u>"
	for startIdx := strings.Index(s, startTag); startIdx > -1; startIdx = strings.Index(s, startTag) {
		endIdx := strings.Index(s, endTag)
		if endIdx < startIdx {
			// Unbalanced markup is printed as is.
			return strings.ReplaceAll(s, startTag, "")
		}
		tagBody := s[startIdx+len(startTag) : endIdx]
		// underlinePrefixColor resets the formatting, so the level color is applied again to the rest.
		s = s[:startIdx] + underlinePrefixColor(tagBody) + colorFunc("%s", s[endIdx+len(endTag):])
	}
	return s
}

func printNow() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *LoggerLevel) Printf(protocolPrefix string, format string, v ...interface{}) {
	timeText := printNow()
	protocolText := ""
	if protocolPrefix != "" {
		protocolText = protocolPrefixColor("[%s]", protocolPrefix)
		for i := len(protocolPrefix); i < 6; i++ {
			protocolText = protocolText + " "
		}
	}
	bodyText := fmt.Sprintf(format, v...)

	mu.Lock()
	defer mu.Unlock()

	for searchFor, replaceWith := range blacklist {
		bodyText = strings.ReplaceAll(bodyText, searchFor, replaceWith)
	}

	if l.logLevelPrefix != "" {
		bodyText = l.colorFunc("[%s] %s\n", l.logLevelPrefix, bodyText)
	} else {
		bodyText = l.colorFunc("%s\n", bodyText)
	}
	bodyText = l.processString(bodyText, l.colorFunc)
	fmt.Fprintf(output, "%s %s %s", timeText, protocolText, bodyText)
}

func LineSpacer(lineCount int) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprint(output, strings.Repeat("\n", lineCount))
}

// AddToBlacklist makes every later log line print replaceWith instead of searchFor.
func AddToBlacklist(searchFor string, replaceWith string) {
	mu.Lock()
	defer mu.Unlock()
	blacklist[searchFor] = replaceWith
}
