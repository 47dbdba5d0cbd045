package parser

// A Pratt parser for the Ruchy surface syntax. Everything is an expression;
// a "program" is just the expressions of one source unit in order.

import (
	"strconv"

	"github.com/paiml/ruchy-sub025/source/ast"
	"github.com/paiml/ruchy-sub025/source/err"
	"github.com/paiml/ruchy-sub025/source/lexer"
	"github.com/paiml/ruchy-sub025/source/text"
	"github.com/paiml/ruchy-sub025/source/token"
)

const (
	LOWEST = iota
	ASSIGN      // = += -= *= /=
	PIPELINE    // |>
	SEND        // ! ?
	RANGE       // .. ..=
	OR          // ||
	AND         // &&
	EQUALS      // == !=
	LESSGREATER // > < >= <=
	SUM         // + -
	PRODUCT     // * / %
	POWER       // **
	PREFIX      // -x !x
	CALL        // f(x)
	INDEX       // a[i] a.b
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:   ASSIGN,
	token.PLUS_EQ:  ASSIGN,
	token.MINUS_EQ: ASSIGN,
	token.MUL_EQ:   ASSIGN,
	token.DIV_EQ:   ASSIGN,
	token.PIPELINE: PIPELINE,
	token.BANG:     SEND,
	token.QUERY:    SEND,
	token.DOTDOT:   RANGE,
	token.DOTDOTEQ: RANGE,
	token.OR:       OR,
	token.AND:      AND,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       LESSGREATER,
	token.GT:       LESSGREATER,
	token.LT_EQ:    LESSGREATER,
	token.GT_EQ:    LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.POW:      POWER,
	token.LPAREN:   CALL,
	token.LBRACK:   INDEX,
	token.DOT:      INDEX,
}

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

type Parser struct {
	lex       *lexer.Lexer
	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn

	Ers err.Errors
}

func NewParser(source, input string) *Parser {
	p := &Parser{lex: lexer.NewLexer(source, input), Ers: err.Errors{}}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{}
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.UNDERSCORE, p.parseIdentifier)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(token.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(token.NIL, p.parseNilLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupOrTuple)
	p.registerPrefix(token.LBRACK, p.parseListLiteral)
	p.registerPrefix(token.LBRACE, p.parseBlockOrObject)
	p.registerPrefix(token.LET, p.parseLetExpression)
	p.registerPrefix(token.IF, p.parseIfExpression)
	p.registerPrefix(token.MATCH, p.parseMatchExpression)
	p.registerPrefix(token.FUN, p.parseFunctionLiteral)
	p.registerPrefix(token.ASYNC, p.parseAsyncFunction)
	p.registerPrefix(token.BAR, p.parseLambda)
	p.registerPrefix(token.FOR, p.parseForExpression)
	p.registerPrefix(token.WHILE, p.parseWhileExpression)
	p.registerPrefix(token.LOOP, p.parseLoopExpression)
	p.registerPrefix(token.BREAK, p.parseBreakExpression)
	p.registerPrefix(token.CONTINUE, p.parseContinueExpression)
	p.registerPrefix(token.RETURN, p.parseReturnExpression)
	p.registerPrefix(token.TRY, p.parseTryExpression)
	p.registerPrefix(token.THROW, p.parseThrowExpression)
	p.registerPrefix(token.AWAIT, p.parseAwaitExpression)
	p.registerPrefix(token.ACTOR, p.parseActorExpression)
	p.registerPrefix(token.SPAWN, p.parseSpawnExpression)
	p.registerPrefix(token.STRUCT, p.parseStructDefinition)
	p.registerPrefix(token.ENUM, p.parseEnumDefinition)
	p.registerPrefix(token.TYPE, p.parseTypeAlias)
	p.registerPrefix(token.IMPORT, p.parseImportExpression)

	p.infixParseFns = map[token.TokenType]infixParseFn{}
	for _, tt := range []token.TokenType{token.PLUS, token.MINUS, token.ASTERISK,
		token.SLASH, token.PERCENT, token.POW, token.EQ, token.NOT_EQ, token.LT,
		token.GT, token.LT_EQ, token.GT_EQ, token.AND, token.OR} {
		p.registerInfix(tt, p.parseInfixExpression)
	}
	p.registerInfix(token.ASSIGN, p.parseAssignmentExpression)
	p.registerInfix(token.PLUS_EQ, p.parseAssignmentExpression)
	p.registerInfix(token.MINUS_EQ, p.parseAssignmentExpression)
	p.registerInfix(token.MUL_EQ, p.parseAssignmentExpression)
	p.registerInfix(token.DIV_EQ, p.parseAssignmentExpression)
	p.registerInfix(token.PIPELINE, p.parsePipelineExpression)
	p.registerInfix(token.DOTDOT, p.parseRangeExpression)
	p.registerInfix(token.DOTDOTEQ, p.parseRangeExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACK, p.parseIndexExpression)
	p.registerInfix(token.DOT, p.parseDotExpression)
	p.registerInfix(token.BANG, p.parseSendExpression)
	p.registerInfix(token.QUERY, p.parseSendExpression)

	// Read two tokens, so curToken and peekToken are both set.
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lex.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.Ers = append(p.Ers, err.CreateErr("parse/expect", &p.peekToken,
		string(t), text.DescribeTok(&p.peekToken)))
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// ParseProgram consumes the whole input and returns the expressions of the
// source unit in order, collecting errors in p.Ers as it goes.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Token: p.curToken, Statements: []ast.Node{}}
	for !p.curTokenIs(token.EOF) {
		stmt := p.parseExpression(LOWEST)
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
		for p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		if len(p.Ers) > 0 {
			break
		}
	}
	p.Ers = append(p.Ers, p.lex.Ers...)
	return program
}

func (p *Parser) parseExpression(precedence int) ast.Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.Ers = append(p.Ers, err.CreateErr("parse/prefix", &p.curToken, text.DescribeTok(&p.curToken)))
		return nil
	}
	left := prefix()
	for left != nil && !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() ast.Node {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Node {
	value, e := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if e != nil {
		p.Ers = append(p.Ers, err.CreateErr("lex/float", &p.curToken, p.curToken.Literal))
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseFloatLiteral() ast.Node {
	value, e := strconv.ParseFloat(p.curToken.Literal, 64)
	if e != nil {
		p.Ers = append(p.Ers, err.CreateErr("lex/float", &p.curToken, p.curToken.Literal))
		return nil
	}
	return &ast.FloatLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Node {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBooleanLiteral() ast.Node {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNilLiteral() ast.Node {
	return &ast.NilLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Node {
	expression := &ast.PrefixExpression{Token: p.curToken, Operator: p.curToken.Literal}
	p.nextToken()
	expression.Right = p.parseExpression(PREFIX)
	return expression
}

func (p *Parser) parseInfixExpression(left ast.Node) ast.Node {
	expression := &ast.InfixExpression{Token: p.curToken, Left: left, Operator: p.curToken.Literal}
	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	return expression
}

func (p *Parser) parseAssignmentExpression(left ast.Node) ast.Node {
	expression := &ast.AssignmentExpression{Token: p.curToken, Left: left, Operator: p.curToken.Literal}
	p.nextToken()
	expression.Right = p.parseExpression(ASSIGN - 1) // Right-associative.
	return expression
}

func (p *Parser) parsePipelineExpression(left ast.Node) ast.Node {
	expression := &ast.PipelineExpression{Token: p.curToken, Left: left}
	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	return expression
}

func (p *Parser) parseRangeExpression(left ast.Node) ast.Node {
	expression := &ast.RangeExpression{Token: p.curToken, Low: left,
		Inclusive: p.curTokenIs(token.DOTDOTEQ)}
	precedence := p.curPrecedence()
	p.nextToken()
	expression.High = p.parseExpression(precedence)
	return expression
}

func (p *Parser) parseGroupOrTuple() ast.Node {
	lparen := p.curToken
	if p.peekTokenIs(token.RPAREN) { // The empty tuple.
		p.nextToken()
		return &ast.TupleLiteral{Token: lparen, Elements: []ast.Node{}}
	}
	p.nextToken()
	first := p.parseExpression(LOWEST)
	if p.peekTokenIs(token.COMMA) {
		elements := []ast.Node{first}
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if p.peekTokenIs(token.RPAREN) { // Trailing comma: (x,) is a one-tuple.
				break
			}
			p.nextToken()
			elements = append(elements, p.parseExpression(LOWEST))
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return &ast.TupleLiteral{Token: lparen, Elements: elements}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return first
}

func (p *Parser) parseListLiteral() ast.Node {
	list := &ast.ListLiteral{Token: p.curToken}
	list.Elements = p.parseExpressionList(token.RBRACK)
	return list
}

func (p *Parser) parseExpressionList(end token.TokenType) []ast.Node {
	list := []ast.Node{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}
	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}
	if !p.expectPeek(end) {
		return nil
	}
	return list
}

// A '{' in expression position is an object literal if it is empty or starts
// with 'key :', and otherwise a block.
func (p *Parser) parseBlockOrObject() ast.Node {
	if p.peekTokenIs(token.RBRACE) {
		lbrace := p.curToken
		p.nextToken()
		return &ast.ObjectLiteral{Token: lbrace, Keys: []string{}, Values: []ast.Node{}}
	}
	if (p.peekTokenIs(token.IDENT) || p.peekTokenIs(token.STRING)) && p.peekAfterIs(token.COLON) {
		return p.parseObjectLiteral()
	}
	return p.parseBlockExpression()
}

// One token of extra lookahead, for '{' disambiguation only. The lexer is
// cheap enough to run twice.
func (p *Parser) peekAfterIs(t token.TokenType) bool {
	saved := *p.lex
	tok := p.lex.NextToken()
	*p.lex = saved
	return tok.Type == t
}

func (p *Parser) parseObjectLiteral() ast.Node {
	object := &ast.ObjectLiteral{Token: p.curToken, Keys: []string{}, Values: []ast.Node{}}
	for !p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		if !p.curTokenIs(token.IDENT) && !p.curTokenIs(token.STRING) {
			p.Ers = append(p.Ers, err.CreateErr("parse/expect", &p.curToken, "object key", text.DescribeTok(&p.curToken)))
			return nil
		}
		key := p.curToken.Literal
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		object.Keys = append(object.Keys, key)
		object.Values = append(object.Values, p.parseExpression(LOWEST))
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return object
}

func (p *Parser) parseBlockExpression() *ast.BlockExpression {
	block := &ast.BlockExpression{Token: p.curToken, Statements: []ast.Node{}}
	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		stmt := p.parseExpression(LOWEST)
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
		for p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
		if len(p.Ers) > 0 {
			return block
		}
	}
	if p.curTokenIs(token.EOF) {
		p.Ers = append(p.Ers, err.CreateErr("parse/eof", &p.curToken))
	}
	return block
}

func (p *Parser) parseLetExpression() ast.Node {
	expression := &ast.LetExpression{Token: p.curToken}
	if p.peekTokenIs(token.MUT) {
		p.nextToken()
		expression.Mutable = true
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expression.Name = p.curToken.Literal
	if p.peekTokenIs(token.COLON) { // Optional type annotation.
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		expression.VarType = p.curToken.Literal
	}
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	expression.Right = p.parseExpression(LOWEST)
	return expression
}

func (p *Parser) parseIfExpression() ast.Node {
	expression := &ast.IfExpression{Token: p.curToken}
	p.nextToken()
	expression.Condition = p.parseExpression(LOWEST)
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.Consequence = p.parseBlockExpression()
	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			expression.Alternative = p.parseIfExpression()
		} else {
			if !p.expectPeek(token.LBRACE) {
				return nil
			}
			expression.Alternative = p.parseBlockExpression()
		}
	}
	return expression
}

func (p *Parser) parseMatchExpression() ast.Node {
	expression := &ast.MatchExpression{Token: p.curToken}
	p.nextToken()
	expression.Scrutinee = p.parseExpression(LOWEST)
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		p.nextToken()
		arm := &ast.MatchArm{}
		arm.Pattern = p.parseExpression(LOWEST)
		if p.peekTokenIs(token.IF) {
			p.nextToken()
			p.nextToken()
			arm.Guard = p.parseExpression(LOWEST)
		}
		if !p.expectPeek(token.FAT_ARROW) {
			return nil
		}
		p.nextToken()
		arm.Body = p.parseExpression(LOWEST)
		if arm.Pattern == nil || arm.Body == nil {
			p.Ers = append(p.Ers, err.CreateErr("parse/match/arm", &p.curToken))
			return nil
		}
		expression.Arms = append(expression.Arms, arm)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return expression
}

func (p *Parser) parseFunctionLiteral() ast.Node {
	fn := &ast.FunctionLiteral{Token: p.curToken}
	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		fn.Name = p.curToken.Literal
	}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	fn.Params = p.parseParams(token.RPAREN)
	if p.peekTokenIs(token.THIN_ARROW) { // Optional return type annotation.
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		fn.ReturnType = p.curToken.Literal
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	fn.Body = p.parseBlockExpression()
	return fn
}

func (p *Parser) parseAsyncFunction() ast.Node {
	asyncTok := p.curToken
	if !p.expectPeek(token.FUN) {
		return nil
	}
	node := p.parseFunctionLiteral()
	if fn, ok := node.(*ast.FunctionLiteral); ok {
		fn.Token = asyncTok
		fn.IsAsync = true
	}
	return node
}

// A lambda: '|x, y| expr' or '|x, y| { ... }'.
func (p *Parser) parseLambda() ast.Node {
	fn := &ast.FunctionLiteral{Token: p.curToken}
	fn.Params = p.parseParams(token.BAR)
	p.nextToken()
	if p.curTokenIs(token.LBRACE) {
		fn.Body = p.parseBlockExpression()
	} else {
		fn.Body = p.parseExpression(LOWEST)
	}
	return fn
}

func (p *Parser) parseParams(end token.TokenType) []ast.Param {
	params := []ast.Param{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return params
	}
	for {
		if !p.expectPeek(token.IDENT) {
			return params
		}
		param := ast.Param{Name: p.curToken.Literal}
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return params
			}
			param.Type = p.curToken.Literal
		}
		params = append(params, param)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(end) {
		return params
	}
	return params
}

func (p *Parser) parseForExpression() ast.Node {
	expression := &ast.ForExpression{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expression.VarName = p.curToken.Literal
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	expression.Iterable = p.parseExpression(LOWEST)
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.Body = p.parseBlockExpression()
	return expression
}

func (p *Parser) parseWhileExpression() ast.Node {
	expression := &ast.WhileExpression{Token: p.curToken}
	p.nextToken()
	expression.Condition = p.parseExpression(LOWEST)
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.Body = p.parseBlockExpression()
	return expression
}

func (p *Parser) parseLoopExpression() ast.Node {
	expression := &ast.LoopExpression{Token: p.curToken}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.Body = p.parseBlockExpression()
	return expression
}

func (p *Parser) parseBreakExpression() ast.Node {
	expression := &ast.BreakExpression{Token: p.curToken}
	if !p.peekTokenIs(token.SEMICOLON) && !p.peekTokenIs(token.RBRACE) &&
		!p.peekTokenIs(token.EOF) && !p.peekTokenIs(token.COMMA) {
		p.nextToken()
		expression.Value = p.parseExpression(LOWEST)
	}
	return expression
}

func (p *Parser) parseContinueExpression() ast.Node {
	return &ast.ContinueExpression{Token: p.curToken}
}

func (p *Parser) parseReturnExpression() ast.Node {
	expression := &ast.ReturnExpression{Token: p.curToken}
	if !p.peekTokenIs(token.SEMICOLON) && !p.peekTokenIs(token.RBRACE) &&
		!p.peekTokenIs(token.EOF) && !p.peekTokenIs(token.COMMA) {
		p.nextToken()
		expression.Value = p.parseExpression(LOWEST)
	}
	return expression
}

func (p *Parser) parseTryExpression() ast.Node {
	expression := &ast.TryExpression{Token: p.curToken}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expression.Body = p.parseBlockExpression()
	if p.peekTokenIs(token.CATCH) {
		p.nextToken()
		if !p.expectPeek(token.LPAREN) {
			return nil
		}
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		expression.CatchVar = p.curToken.Literal
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		expression.CatchBody = p.parseBlockExpression()
	}
	if p.peekTokenIs(token.FINALLY) {
		p.nextToken()
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		expression.FinallyBody = p.parseBlockExpression()
	}
	return expression
}

func (p *Parser) parseThrowExpression() ast.Node {
	expression := &ast.ThrowExpression{Token: p.curToken}
	p.nextToken()
	expression.Value = p.parseExpression(LOWEST)
	return expression
}

func (p *Parser) parseAwaitExpression() ast.Node {
	expression := &ast.AwaitExpression{Token: p.curToken}
	p.nextToken()
	expression.Value = p.parseExpression(PREFIX)
	return expression
}

func (p *Parser) parseActorExpression() ast.Node {
	expression := &ast.ActorExpression{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expression.Name = p.curToken.Literal
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		p.nextToken()
		if p.curTokenIs(token.RECEIVE) {
			handler := &ast.ReceiveHandler{Token: p.curToken}
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			handler.Message = p.curToken.Literal
			if !p.expectPeek(token.LPAREN) {
				return nil
			}
			handler.Params = p.parseParams(token.RPAREN)
			if !p.expectPeek(token.FAT_ARROW) {
				return nil
			}
			p.nextToken()
			handler.Body = p.parseExpression(LOWEST)
			expression.Handlers = append(expression.Handlers, handler)
		} else if p.curTokenIs(token.IDENT) {
			name := p.curToken.Literal
			if !p.expectPeek(token.COLON) {
				return nil
			}
			p.nextToken()
			expression.States = append(expression.States,
				ast.StateField{Name: name, Value: p.parseExpression(LOWEST)})
		} else {
			p.Ers = append(p.Ers, err.CreateErr("parse/expect", &p.curToken,
				"state field or receive handler", text.DescribeTok(&p.curToken)))
			return nil
		}
		if p.peekTokenIs(token.COMMA) || p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return expression
}

func (p *Parser) parseSpawnExpression() ast.Node {
	expression := &ast.SpawnExpression{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expression.Name = p.curToken.Literal
	return expression
}

func (p *Parser) parseStructDefinition() ast.Node {
	expression := &ast.StructDefinition{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expression.Name = p.curToken.Literal
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		field := ast.Param{Name: p.curToken.Literal}
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			field.Type = p.curToken.Literal
		}
		expression.Fields = append(expression.Fields, field)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return expression
}

func (p *Parser) parseEnumDefinition() ast.Node {
	expression := &ast.EnumDefinition{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expression.Name = p.curToken.Literal
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		expression.Variants = append(expression.Variants, p.curToken.Literal)
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return expression
}

func (p *Parser) parseTypeAlias() ast.Node {
	expression := &ast.TypeAlias{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expression.Name = p.curToken.Literal
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expression.Target = p.curToken.Literal
	return expression
}

func (p *Parser) parseImportExpression() ast.Node {
	expression := &ast.ImportExpression{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expression.Module = p.curToken.Literal
	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		expression.Alias = p.curToken.Literal
	}
	return expression
}

func (p *Parser) parseCallExpression(function ast.Node) ast.Node {
	call := &ast.CallExpression{Token: p.curToken, Function: function}
	call.Args = p.parseExpressionList(token.RPAREN)
	return call
}

func (p *Parser) parseIndexExpression(left ast.Node) ast.Node {
	expression := &ast.IndexExpression{Token: p.curToken, Left: left}
	p.nextToken()
	expression.Index = p.parseExpression(LOWEST)
	if !p.expectPeek(token.RBRACK) {
		return nil
	}
	return expression
}

// 'a.b(args)' is a method call; 'a.b' is field access, which we treat as
// indexing with a string; 'a.0' is tuple access.
func (p *Parser) parseDotExpression(left ast.Node) ast.Node {
	dotTok := p.curToken
	if p.peekTokenIs(token.INT) {
		p.nextToken()
		index, _ := strconv.ParseInt(p.curToken.Literal, 10, 64)
		return &ast.IndexExpression{Token: dotTok, Left: left,
			Index: &ast.IntegerLiteral{Token: p.curToken, Value: index}}
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		call := &ast.MethodCallExpression{Token: name, Receiver: left, Method: name.Literal}
		call.Args = p.parseExpressionList(token.RPAREN)
		return call
	}
	return &ast.IndexExpression{Token: dotTok, Left: left,
		Index: &ast.StringLiteral{Token: name, Value: name.Literal}}
}

// 'ref ! msg(args)' or 'ref ? msg(args)'.
func (p *Parser) parseSendExpression(left ast.Node) ast.Node {
	expression := &ast.SendExpression{Token: p.curToken, Target: left,
		Ask: p.curTokenIs(token.QUERY)}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expression.Message = p.curToken.Literal
	if p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		expression.Args = p.parseExpressionList(token.RPAREN)
	}
	return expression
}
